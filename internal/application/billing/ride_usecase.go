package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/davcruz/facturador-api/internal/domain"
	"github.com/davcruz/facturador-api/internal/domain/entity"
	"github.com/davcruz/facturador-api/internal/domain/repository"
	"github.com/davcruz/facturador-api/pkg/logger"
)

// RideUseCase genera y sirve la representación impresa (RIDE) del comprobante.
// Solo existe RIDE para comprobantes autorizados; el PDF se genera una vez y
// se sirve desde el almacén en lecturas posteriores.
type RideUseCase struct {
	docs      repository.TaxDocumentRepository
	companies repository.CompanyRepository
	customers repository.CustomerRepository
	store     ArtifactStore
	generator RIDEGenerator
	log       *logger.Logger
}

// NewRideUseCase construye el caso de uso.
func NewRideUseCase(
	docs repository.TaxDocumentRepository,
	companies repository.CompanyRepository,
	customers repository.CustomerRepository,
	store ArtifactStore,
	generator RIDEGenerator,
	log *logger.Logger,
) *RideUseCase {
	return &RideUseCase{docs: docs, companies: companies, customers: customers, store: store, generator: generator, log: log}
}

// GetRIDE devuelve los bytes del PDF del comprobante autorizado.
func (uc *RideUseCase) GetRIDE(ctx context.Context, companyID, documentID string) ([]byte, error) {
	doc, err := fetchOwnedDocument(ctx, uc.docs, companyID, documentID)
	if err != nil {
		return nil, err
	}

	switch doc.Status {
	case entity.StatusAuthorized, entity.StatusSent, entity.StatusPaid, entity.StatusOverdue:
		// autorizado o posterior: hay RIDE
	default:
		return nil, fmt.Errorf("%w: el RIDE solo existe para comprobantes autorizados (estado %s)", domain.ErrConflict, doc.Status)
	}

	if doc.RIDEPath != "" {
		return uc.store.Load(doc.RIDEPath)
	}

	company, err := uc.companies.GetByID(ctx, doc.CompanyID)
	if err != nil {
		return nil, err
	}
	customer, err := uc.customers.GetByID(ctx, doc.CustomerID)
	if err != nil {
		return nil, err
	}
	if company == nil || customer == nil {
		return nil, domain.ErrNotFound
	}
	items, err := uc.docs.GetItems(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	lines := make([]DocumentLineForPDF, 0, len(items))
	for _, it := range items {
		lines = append(lines, DocumentLineForPDF{
			ProductCode: it.ProductCode,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Discount:    it.Discount,
			Subtotal:    it.Subtotal,
			TaxRate:     it.TaxRate,
		})
	}

	pdfBytes, err := uc.generator.GenerateRIDE(ctx, doc, company, customer, lines)
	if err != nil {
		return nil, err
	}

	path, err := uc.store.Save(doc.CompanyID, doc.ID, "ride.pdf", pdfBytes)
	if err != nil {
		return nil, err
	}
	doc.RIDEPath = path
	doc.UpdatedAt = time.Now()
	if err := uc.docs.Update(ctx, doc); err != nil {
		return nil, err
	}

	uc.log.Info().Str("document_id", doc.ID).Msg("RIDE generado")
	return pdfBytes, nil
}
