package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/davcruz/facturador-api/internal/domain"
	"github.com/davcruz/facturador-api/internal/domain/entity"
	"github.com/davcruz/facturador-api/internal/domain/repository"
	domsri "github.com/davcruz/facturador-api/internal/domain/sri"
	infrasri "github.com/davcruz/facturador-api/internal/infrastructure/sri"
	"github.com/davcruz/facturador-api/pkg/logger"
)

// SubmitDocumentUseCase envía el XML firmado al WS de recepción del SRI.
//
// Regla de reenvío: ante cualquier evidencia de un intento anterior — una
// recepción RECIBIDA (SubmittedAt) o una fila de bitácora de envío, que cubre
// el timeout local donde la entrega pudo llegar igual al SRI — primero se
// consulta la autorización; solo se reenvía cuando el SRI declara no conocer
// la clave de acceso. Así un reintento nunca produce un doble envío.
type SubmitDocumentUseCase struct {
	docs     repository.TaxDocumentRepository
	gateway  infrasri.SRIGateway
	store    ArtifactStore
	recorder *ErrorRecorder
	log      *logger.Logger
}

// NewSubmitDocumentUseCase construye el caso de uso.
func NewSubmitDocumentUseCase(
	docs repository.TaxDocumentRepository,
	gateway infrasri.SRIGateway,
	store ArtifactStore,
	recorder *ErrorRecorder,
	log *logger.Logger,
) *SubmitDocumentUseCase {
	return &SubmitDocumentUseCase{docs: docs, gateway: gateway, store: store, recorder: recorder, log: log}
}

// Submit ejecuta el envío. Un fallo transitorio deja el estado intacto y el
// caller puede reintentar; un rechazo DEVUELTA es terminal para la clave.
func (uc *SubmitDocumentUseCase) Submit(ctx context.Context, companyID, documentID string) (*entity.TaxDocument, error) {
	doc, err := fetchOwnedDocument(ctx, uc.docs, companyID, documentID)
	if err != nil {
		return nil, err
	}

	switch doc.Status {
	case entity.StatusPendingAuthorization:
		// caso normal
	case entity.StatusDraft, entity.StatusPendingSignature:
		return nil, fmt.Errorf("%w: no se puede enviar en estado %s", domain.ErrConflict, doc.Status)
	default:
		// Ya autorizado, rechazado o posterior: el envío quedó atrás.
		return doc, nil
	}
	if uc.gateway == nil {
		return nil, fmt.Errorf("%w: gateway SRI no configurado para este entorno", domain.ErrSRIUnavailable)
	}

	// Cualquier intento previo pudo haber llegado al SRI aunque aquí no
	// conste la recepción (timeout local tras la entrega): verificar la
	// autorización antes de reenviar.
	prior := doc.SubmittedAt != nil
	if !prior {
		n, cntErr := uc.recorder.Attempts(ctx, doc.ID, entity.OperationSubmitReception)
		if cntErr != nil {
			uc.log.Warn().Err(cntErr).Str("document_id", doc.ID).Msg("bitácora ilegible; se consulta autorización antes de enviar")
			prior = true
		} else {
			prior = n > 0
		}
	}
	if prior {
		auth, err := uc.gateway.CheckAuthorization(ctx, doc.AccessKey)
		if err != nil {
			uc.recorder.Record(ctx, doc, entity.OperationSubmitReception, ErrorCode(err), err.Error(), "")
			return nil, err
		}
		if auth.Found {
			// El SRI ya conoce la clave; aplicar lo que haya resuelto.
			if err := applyAuthorization(ctx, uc.docs, uc.recorder, doc, auth); err != nil {
				return nil, err
			}
			return doc, nil
		}
		// El SRI no conoce la clave: la recepción anterior se perdió, reenviar.
	}

	signedXML, err := uc.store.Load(doc.SignedXMLPath)
	if err != nil {
		uc.recorder.Record(ctx, doc, entity.OperationSubmitReception, CodeInternal, err.Error(), "")
		return nil, err
	}

	result, err := uc.gateway.SubmitReception(ctx, signedXML)
	if err != nil {
		// Fallo de transporte: estado intacto, reintentable.
		uc.recorder.Record(ctx, doc, entity.OperationSubmitReception, ErrorCode(err), err.Error(), "")
		return nil, err
	}

	if !result.Received() {
		// DEVUELTA: rechazo de negocio, terminal para esta clave de acceso.
		doc.SRIErrors = joinMessages(result.Messages)
		uc.recorder.Record(ctx, doc, entity.OperationSubmitReception, CodeSRIRejected, doc.SRIErrors, result.Estado)
		if err := domsri.Transition(doc, entity.StatusRejected); err != nil {
			return nil, err
		}
		doc.UpdatedAt = time.Now()
		if err := uc.docs.UpdateIfStatus(ctx, doc, entity.StatusPendingAuthorization); err != nil {
			return nil, err
		}
		uc.log.Warn().
			Str("document_id", doc.ID).
			Str("access_key", doc.AccessKey).
			Msg("comprobante devuelto por el SRI")
		return doc, nil
	}

	now := time.Now()
	doc.SubmittedAt = &now
	doc.UpdatedAt = now
	if err := uc.docs.UpdateIfStatus(ctx, doc, entity.StatusPendingAuthorization); err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("document_id", doc.ID).
		Str("access_key", doc.AccessKey).
		Msg("comprobante recibido por el SRI")
	return doc, nil
}

// joinMessages aplana los mensajes del SRI en un texto legible para SRIErrors.
func joinMessages(msgs []infrasri.SRIMessage) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		s := m.Message
		if m.Identifier != "" {
			s = "[" + m.Identifier + "] " + s
		}
		if m.AdditionalInfo != "" {
			s += ": " + m.AdditionalInfo
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}
