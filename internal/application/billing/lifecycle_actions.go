package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/davcruz/facturador-api/internal/domain"
	"github.com/davcruz/facturador-api/internal/domain/entity"
	"github.com/davcruz/facturador-api/internal/domain/repository"
	domsri "github.com/davcruz/facturador-api/internal/domain/sri"
	"github.com/davcruz/facturador-api/pkg/logger"
)

// LifecycleActions acciones manuales posteriores a la autorización: marcar el
// comprobante como entregado al cliente y como pagado. Ambas son idempotentes.
type LifecycleActions struct {
	docs repository.TaxDocumentRepository
	log  *logger.Logger
}

// NewLifecycleActions construye las acciones.
func NewLifecycleActions(docs repository.TaxDocumentRepository, log *logger.Logger) *LifecycleActions {
	return &LifecycleActions{docs: docs, log: log}
}

// MarkSent marca el comprobante como entregado al cliente.
func (a *LifecycleActions) MarkSent(ctx context.Context, companyID, documentID string) (*entity.TaxDocument, error) {
	doc, err := fetchOwnedDocument(ctx, a.docs, companyID, documentID)
	if err != nil {
		return nil, err
	}
	switch doc.Status {
	case entity.StatusSent, entity.StatusPaid, entity.StatusOverdue:
		return doc, nil // ya pasó por SENT
	case entity.StatusAuthorized:
		// caso normal
	default:
		return nil, fmt.Errorf("%w: solo un comprobante autorizado puede marcarse como enviado (estado %s)", domain.ErrConflict, doc.Status)
	}
	return a.transitionAndSave(ctx, doc, entity.StatusSent)
}

// MarkPaid marca el comprobante como pagado. El vencimiento se materializa
// antes de evaluar el pago: un comprobante SENT con fecha vencida pasa a
// OVERDUE primero, de modo que el resultado no depende de si alguien lo leyó
// entre medio.
func (a *LifecycleActions) MarkPaid(ctx context.Context, companyID, documentID string) (*entity.TaxDocument, error) {
	doc, err := fetchOwnedDocument(ctx, a.docs, companyID, documentID)
	if err != nil {
		return nil, err
	}
	if err := a.RefreshOverdue(ctx, doc, time.Now()); err != nil {
		return nil, err
	}
	switch doc.Status {
	case entity.StatusPaid:
		return doc, nil
	case entity.StatusSent:
		// caso normal
	default:
		return nil, fmt.Errorf("%w: solo un comprobante enviado puede marcarse como pagado (estado %s)", domain.ErrConflict, doc.Status)
	}
	return a.transitionAndSave(ctx, doc, entity.StatusPaid)
}

// RefreshOverdue aplica en lectura el vencimiento: un comprobante SENT con
// fecha de vencimiento pasada transiciona a OVERDUE. No hay job de fondo; la
// verdad se materializa al consultar.
func (a *LifecycleActions) RefreshOverdue(ctx context.Context, doc *entity.TaxDocument, now time.Time) error {
	if doc.Status != entity.StatusSent || doc.DueDate == nil || !now.After(*doc.DueDate) {
		return nil
	}
	if err := domsri.Transition(doc, entity.StatusOverdue); err != nil {
		return err
	}
	doc.UpdatedAt = now
	if err := a.docs.UpdateIfStatus(ctx, doc, entity.StatusSent); err != nil {
		return err
	}
	a.log.Info().Str("document_id", doc.ID).Msg("comprobante vencido sin pago")
	return nil
}

func (a *LifecycleActions) transitionAndSave(ctx context.Context, doc *entity.TaxDocument, to string) (*entity.TaxDocument, error) {
	from := doc.Status
	if err := domsri.Transition(doc, to); err != nil {
		return nil, err
	}
	doc.UpdatedAt = time.Now()
	if err := a.docs.UpdateIfStatus(ctx, doc, from); err != nil {
		return nil, err
	}
	a.log.Info().Str("document_id", doc.ID).Str("status", to).Msg("estado actualizado")
	return doc, nil
}
