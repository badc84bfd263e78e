package repository

import (
	"context"

	"github.com/davcruz/facturador-api/internal/domain/entity"
)

// CustomerRepository puerto de persistencia de compradores.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	// GetByID retorna nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Customer, error)
}
