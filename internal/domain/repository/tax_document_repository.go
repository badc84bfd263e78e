package repository

import (
	"context"

	"github.com/davcruz/facturador-api/internal/domain/entity"
)

// TaxDocumentRepository define el puerto de persistencia para comprobantes y
// sus líneas. La implementación vive en infrastructure y acepta pool o tx.
type TaxDocumentRepository interface {
	Create(ctx context.Context, doc *entity.TaxDocument) error
	CreateItem(ctx context.Context, item *entity.TaxDocumentItem) error
	// GetByID retorna nil, nil si el comprobante no existe.
	GetByID(ctx context.Context, id string) (*entity.TaxDocument, error)
	GetItems(ctx context.Context, documentID string) ([]*entity.TaxDocumentItem, error)
	// GetByIDForUpdate retorna el comprobante tomando el lock de fila.
	// Dentro de una transacción serializa a los emisores concurrentes del
	// mismo comprobante; retorna nil, nil si no existe.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.TaxDocument, error)
	// Update persiste todos los campos del ciclo SRI: numeración, clave de
	// acceso, estado, autorización, rutas de artefactos y errores.
	Update(ctx context.Context, doc *entity.TaxDocument) error
	// UpdateIfStatus persiste igual que Update pero solo si el estado en la
	// base sigue siendo fromStatus. Retorna ErrConflict si otra llamada ya
	// movió el comprobante, ErrNotFound si no existe.
	UpdateIfStatus(ctx context.Context, doc *entity.TaxDocument, fromStatus string) error
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.TaxDocument, error)
}
