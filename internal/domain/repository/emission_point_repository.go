package repository

import (
	"context"

	"github.com/davcruz/facturador-api/internal/domain/entity"
)

// EmissionPointRepository puerto de persistencia para puntos de emisión y la
// asignación atómica de secuenciales (SequenceAllocator).
type EmissionPointRepository interface {
	Create(ctx context.Context, ep *entity.EmissionPoint) error
	// GetByID retorna nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.EmissionPoint, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.EmissionPoint, error)
	SetActive(ctx context.Context, companyID, id string, active bool) error

	// NextSequential incrementa y devuelve, en una sola operación atómica, el
	// contador del tipo de comprobante indicado (codDoc de pkg/sri). El lock de
	// fila serializa asignaciones concurrentes sobre el mismo punto de emisión
	// sin bloquear puntos o tenants ajenos. Debe ejecutarse dentro de la misma
	// transacción que persiste el comprobante que consume el número: si esa
	// transacción se revierte, el incremento también, y no queda hueco.
	// Retorna domain.ErrEmissionPointNotFound si el punto no existe o no es del
	// tenant, y domain.ErrEmissionPointInactive si está desactivado.
	NextSequential(ctx context.Context, companyID, emissionPointID, documentTypeCode string) (int64, error)
}
