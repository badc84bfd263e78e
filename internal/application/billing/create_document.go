package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/davcruz/facturador-api/internal/application/dto"
	"github.com/davcruz/facturador-api/internal/domain"
	"github.com/davcruz/facturador-api/internal/domain/entity"
	"github.com/davcruz/facturador-api/internal/domain/repository"
	"github.com/davcruz/facturador-api/pkg/logger"
	pkgsri "github.com/davcruz/facturador-api/pkg/sri"
)

// CreateDocumentUseCase crea comprobantes en borrador. El borrador no tiene
// secuencial, número ni clave de acceso: eso ocurre recién al generar el XML.
type CreateDocumentUseCase struct {
	docs      repository.TaxDocumentRepository
	customers repository.CustomerRepository
	points    repository.EmissionPointRepository
	log       *logger.Logger
}

// NewCreateDocumentUseCase construye el caso de uso.
func NewCreateDocumentUseCase(
	docs repository.TaxDocumentRepository,
	customers repository.CustomerRepository,
	points repository.EmissionPointRepository,
	log *logger.Logger,
) *CreateDocumentUseCase {
	return &CreateDocumentUseCase{docs: docs, customers: customers, points: points, log: log}
}

// Create valida la entrada, calcula los totales a partir de las líneas y
// persiste el borrador con sus ítems.
func (uc *CreateDocumentUseCase) Create(ctx context.Context, companyID string, req *dto.CreateDocumentRequest) (*entity.TaxDocument, []*entity.TaxDocumentItem, error) {
	if err := uc.validate(ctx, companyID, req); err != nil {
		return nil, nil, err
	}

	issueDate := time.Now()
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}

	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	items := make([]*entity.TaxDocumentItem, 0, len(req.Items))
	for _, it := range req.Items {
		lineSubtotal := it.Quantity.Mul(it.UnitPrice).Sub(it.Discount).Round(2)
		if lineSubtotal.IsNegative() {
			return nil, nil, fmt.Errorf("%w: el descuento no puede superar el valor de la línea %q", domain.ErrInvalidInput, it.Description)
		}
		subtotal = subtotal.Add(lineSubtotal)
		taxTotal = taxTotal.Add(lineSubtotal.Mul(it.TaxRate).Div(decimal.NewFromInt(100)).Round(2))
		items = append(items, &entity.TaxDocumentItem{
			ProductCode: it.ProductCode,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Discount:    it.Discount,
			Subtotal:    lineSubtotal,
			TaxRate:     it.TaxRate,
		})
	}

	doc := &entity.TaxDocument{
		CompanyID:         companyID,
		CustomerID:        req.CustomerID,
		EmissionPointID:   req.EmissionPointID,
		DocumentType:      req.DocumentType,
		Status:            entity.StatusDraft,
		IssueDate:         issueDate,
		DueDate:           req.DueDate,
		Subtotal:          subtotal,
		TaxTotal:          taxTotal,
		Total:             subtotal.Add(taxTotal),
		ModifiedDocType:   req.ModifiedDocType,
		ModifiedDocNumber: req.ModifiedDocNumber,
		ModifiedDocDate:   req.ModifiedDocDate,
		Motive:            req.Motive,
	}

	if err := uc.docs.Create(ctx, doc); err != nil {
		return nil, nil, err
	}
	for _, it := range items {
		it.DocumentID = doc.ID
		if err := uc.docs.CreateItem(ctx, it); err != nil {
			return nil, nil, err
		}
	}

	uc.log.Info().
		Str("document_id", doc.ID).
		Str("company_id", companyID).
		Str("document_type", doc.DocumentType).
		Str("total", doc.Total.StringFixed(2)).
		Msg("comprobante creado en borrador")
	return doc, items, nil
}

func (uc *CreateDocumentUseCase) validate(ctx context.Context, companyID string, req *dto.CreateDocumentRequest) error {
	if !pkgsri.ValidDocumentTypeCodes[req.DocumentType] {
		return fmt.Errorf("%w: tipo de comprobante %q no soportado", domain.ErrInvalidInput, req.DocumentType)
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: el comprobante necesita al menos una línea", domain.ErrInvalidInput)
	}
	for _, it := range req.Items {
		if it.Description == "" {
			return fmt.Errorf("%w: toda línea necesita descripción", domain.ErrInvalidInput)
		}
		if !it.Quantity.IsPositive() {
			return fmt.Errorf("%w: la cantidad debe ser positiva en %q", domain.ErrInvalidInput, it.Description)
		}
		if it.UnitPrice.IsNegative() || it.Discount.IsNegative() {
			return fmt.Errorf("%w: precio y descuento no pueden ser negativos en %q", domain.ErrInvalidInput, it.Description)
		}
		if req.DocumentType != pkgsri.DocTypeRetention {
			if _, ok := pkgsri.IVAPercentageCode(it.TaxRate.StringFixed(0)); !ok {
				return fmt.Errorf("%w: tarifa de IVA %s no catalogada en %q", domain.ErrInvalidInput, it.TaxRate.StringFixed(0), it.Description)
			}
		}
	}

	// Notas y retenciones exigen documento sustento.
	if req.DocumentType != pkgsri.DocTypeInvoice {
		if req.ModifiedDocType == "" || req.ModifiedDocNumber == "" || req.ModifiedDocDate == nil {
			return fmt.Errorf("%w: el tipo %s requiere documento sustento (tipo, número y fecha)", domain.ErrInvalidInput, req.DocumentType)
		}
		if req.DocumentType != pkgsri.DocTypeRetention && req.Motive == "" {
			return fmt.Errorf("%w: las notas requieren motivo", domain.ErrInvalidInput)
		}
	}

	customer, err := uc.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		return err
	}
	if customer == nil || customer.CompanyID != companyID {
		return fmt.Errorf("%w: comprador %s", domain.ErrNotFound, req.CustomerID)
	}

	point, err := uc.points.GetByID(ctx, req.EmissionPointID)
	if err != nil {
		return err
	}
	if point == nil || point.CompanyID != companyID {
		return domain.ErrEmissionPointNotFound
	}
	if !point.IsActive {
		return domain.ErrEmissionPointInactive
	}
	return nil
}
