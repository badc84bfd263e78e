// Package billing orquesta el ciclo de vida del comprobante electrónico:
// borrador, numeración y clave de acceso, firma XAdES, envío al SRI,
// autorización y acciones posteriores (envío al cliente, pago).
package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/davcruz/facturador-api/internal/domain/entity"
	"github.com/davcruz/facturador-api/internal/domain/repository"
)

// IssuanceTxRunner ejecuta la sección crítica de emisión dentro de una
// transacción: asignación de secuencial y persistencia de la numeración son
// atómicas o no ocurren.
type IssuanceTxRunner interface {
	RunIssuance(ctx context.Context, fn func(
		docs repository.TaxDocumentRepository,
		points repository.EmissionPointRepository,
	) error) error
}

// ArtifactStore persiste los artefactos del comprobante (XML, XML firmado,
// RIDE). La ruta que devuelve Save es el único handle que el motor guarda.
type ArtifactStore interface {
	Save(companyID, documentID, name string, data []byte) (string, error)
	Load(path string) ([]byte, error)
}

// DocumentLineForPDF línea de detalle resuelta para el RIDE.
type DocumentLineForPDF struct {
	ProductCode string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	Subtotal    decimal.Decimal
	TaxRate     decimal.Decimal
}

// RIDEGenerator genera la representación impresa (RIDE) del comprobante
// autorizado.
type RIDEGenerator interface {
	GenerateRIDE(
		ctx context.Context,
		doc *entity.TaxDocument,
		company *entity.Company,
		customer *entity.Customer,
		lines []DocumentLineForPDF,
	) ([]byte, error)
}
