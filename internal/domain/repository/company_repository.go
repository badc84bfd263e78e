package repository

import (
	"context"

	"github.com/davcruz/facturador-api/internal/domain/entity"
)

// CompanyRepository puerto de lectura/escritura del tenant. El CRUD completo
// vive en otro servicio; el motor solo necesita la identidad del emisor.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	// GetByID retorna nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	GetByRUC(ctx context.Context, ruc string) (*entity.Company, error)
}
