package billing

import (
	"context"
	"errors"
	"time"

	"github.com/davcruz/facturador-api/internal/domain"
	"github.com/davcruz/facturador-api/internal/domain/entity"
	"github.com/davcruz/facturador-api/internal/domain/repository"
	"github.com/davcruz/facturador-api/pkg/logger"
)

// Códigos estables de error para la bitácora y las respuestas HTTP.
const (
	CodeCertificateNotConfigured  = "CERTIFICATE_NOT_CONFIGURED"
	CodeCertificateExpired        = "CERTIFICATE_EXPIRED"
	CodeCertificateInvalidPasswd  = "CERTIFICATE_INVALID_PASSWORD"
	CodeSRIUnavailable            = "SRI_UNAVAILABLE"
	CodeSRIRejected               = "SRI_REJECTED"
	CodeEmissionPointNotFound     = "EMISSION_POINT_NOT_FOUND"
	CodeEmissionPointInactive     = "EMISSION_POINT_INACTIVE"
	CodeInvalidState              = "INVALID_STATE"
	CodeInternal                  = "INTERNAL"
)

// ErrorRecorder registra cada fallo del ciclo SRI como fila append-only, con
// ordinal de intento por (documento, operación). El registro nunca bloquea el
// flujo: si la bitácora falla, se deja constancia en el log y se continúa.
type ErrorRecorder struct {
	logs repository.SriErrorLogRepository
	log  *logger.Logger
}

// NewErrorRecorder construye el recorder.
func NewErrorRecorder(logs repository.SriErrorLogRepository, log *logger.Logger) *ErrorRecorder {
	return &ErrorRecorder{logs: logs, log: log}
}

// Record inserta la fila de bitácora antes de que el error llegue al caller.
func (r *ErrorRecorder) Record(ctx context.Context, doc *entity.TaxDocument, operation, code, message, rawPayload string) {
	attempt := 1
	if n, err := r.logs.CountByDocumentAndOperation(ctx, doc.ID, operation); err == nil {
		attempt = n + 1
	} else {
		r.log.Warn().Err(err).Str("document_id", doc.ID).Msg("no se pudo contar intentos previos en la bitácora SRI")
	}

	entry := &entity.SriErrorLog{
		DocumentID: doc.ID,
		CompanyID:  doc.CompanyID,
		Operation:  operation,
		ErrorCode:  code,
		Message:    message,
		RawPayload: rawPayload,
		Attempt:    attempt,
		CreatedAt:  time.Now(),
	}
	if err := r.logs.Append(ctx, entry); err != nil {
		r.log.Error().Err(err).
			Str("document_id", doc.ID).
			Str("operation", operation).
			Msg("no se pudo registrar el error en la bitácora SRI")
		return
	}
	r.log.Warn().
		Str("document_id", doc.ID).
		Str("operation", operation).
		Str("error_code", code).
		Int("attempt", attempt).
		Msg(message)
}

// Attempts devuelve cuántos intentos fallidos registra la bitácora para la
// operación sobre el documento.
func (r *ErrorRecorder) Attempts(ctx context.Context, documentID, operation string) (int, error) {
	return r.logs.CountByDocumentAndOperation(ctx, documentID, operation)
}

// ErrorCode clasifica un error del ciclo SRI en su código estable.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrCertificateNotConfigured):
		return CodeCertificateNotConfigured
	case errors.Is(err, domain.ErrCertificateExpired):
		return CodeCertificateExpired
	case errors.Is(err, domain.ErrCertificateInvalidPassword):
		return CodeCertificateInvalidPasswd
	case errors.Is(err, domain.ErrSRIUnavailable):
		return CodeSRIUnavailable
	case errors.Is(err, domain.ErrSRIRejected):
		return CodeSRIRejected
	case errors.Is(err, domain.ErrEmissionPointNotFound):
		return CodeEmissionPointNotFound
	case errors.Is(err, domain.ErrEmissionPointInactive):
		return CodeEmissionPointInactive
	case errors.Is(err, domain.ErrConflict):
		return CodeInvalidState
	default:
		return CodeInternal
	}
}
