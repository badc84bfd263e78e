package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/davcruz/facturador-api/internal/domain"
	"github.com/davcruz/facturador-api/internal/domain/entity"
	"github.com/davcruz/facturador-api/internal/domain/repository"
	domsri "github.com/davcruz/facturador-api/internal/domain/sri"
	infrasri "github.com/davcruz/facturador-api/internal/infrastructure/sri"
	"github.com/davcruz/facturador-api/pkg/logger"
)

// AuthorizationPoller consulta el estado de autorización de un comprobante ya
// recibido por el SRI y aplica el veredicto sobre el ciclo de vida.
//
// La consulta es idempotente: sobre un comprobante ya resuelto devuelve el
// estado actual sin tocar nada; EN PROCESO no muta el comprobante.
type AuthorizationPoller struct {
	docs     repository.TaxDocumentRepository
	gateway  infrasri.SRIGateway
	recorder *ErrorRecorder
	log      *logger.Logger
}

// NewAuthorizationPoller construye el poller.
func NewAuthorizationPoller(
	docs repository.TaxDocumentRepository,
	gateway infrasri.SRIGateway,
	recorder *ErrorRecorder,
	log *logger.Logger,
) *AuthorizationPoller {
	return &AuthorizationPoller{docs: docs, gateway: gateway, recorder: recorder, log: log}
}

// Poll consulta y aplica el resultado de autorización.
func (p *AuthorizationPoller) Poll(ctx context.Context, companyID, documentID string) (*entity.TaxDocument, error) {
	doc, err := fetchOwnedDocument(ctx, p.docs, companyID, documentID)
	if err != nil {
		return nil, err
	}

	switch doc.Status {
	case entity.StatusPendingAuthorization:
		// caso normal
	case entity.StatusDraft, entity.StatusPendingSignature:
		return nil, fmt.Errorf("%w: el comprobante en estado %s aún no fue enviado", domain.ErrConflict, doc.Status)
	default:
		// Veredicto ya aplicado: idempotente.
		return doc, nil
	}
	if p.gateway == nil {
		return nil, fmt.Errorf("%w: gateway SRI no configurado para este entorno", domain.ErrSRIUnavailable)
	}

	auth, err := p.gateway.CheckAuthorization(ctx, doc.AccessKey)
	if err != nil {
		p.recorder.Record(ctx, doc, entity.OperationCheckAuthorization, ErrorCode(err), err.Error(), "")
		return nil, err
	}

	if err := applyAuthorization(ctx, p.docs, p.recorder, doc, auth); err != nil {
		return nil, err
	}
	return doc, nil
}

// applyAuthorization muta el comprobante según el veredicto del SRI y lo
// persiste. EN PROCESO y clave desconocida son no-ops.
func applyAuthorization(ctx context.Context, docs repository.TaxDocumentRepository, recorder *ErrorRecorder, doc *entity.TaxDocument, auth *infrasri.AuthorizationResult) error {
	switch {
	case !auth.Found:
		// El SRI todavía no registra la clave; nada que aplicar.
		return nil

	case auth.Authorized():
		if err := domsri.Transition(doc, entity.StatusAuthorized); err != nil {
			return err
		}
		doc.AuthorizationNumber = auth.AuthorizationNumber
		if auth.AuthorizedAt != nil {
			doc.AuthorizedAt = auth.AuthorizedAt
		} else {
			now := time.Now()
			doc.AuthorizedAt = &now
		}
		doc.SRIErrors = ""
		doc.UpdatedAt = time.Now()
		return docs.UpdateIfStatus(ctx, doc, entity.StatusPendingAuthorization)

	case auth.Rejected():
		doc.SRIErrors = joinMessages(auth.Messages)
		recorder.Record(ctx, doc, entity.OperationCheckAuthorization, CodeSRIRejected, doc.SRIErrors, auth.Estado)
		if err := domsri.Transition(doc, entity.StatusRejected); err != nil {
			return err
		}
		doc.UpdatedAt = time.Now()
		return docs.UpdateIfStatus(ctx, doc, entity.StatusPendingAuthorization)

	default:
		// EN PROCESO: seguir esperando.
		return nil
	}
}
