package billing

import (
	"context"
	"fmt"

	"github.com/davcruz/facturador-api/internal/application/dto"
	"github.com/davcruz/facturador-api/internal/domain"
	"github.com/davcruz/facturador-api/internal/domain/entity"
	"github.com/davcruz/facturador-api/internal/domain/repository"
	"github.com/davcruz/facturador-api/pkg/logger"
)

// EmissionPointUseCase alta y administración de puntos de emisión.
// Desactivar un punto detiene nuevas emisiones sin afectar los comprobantes ya
// numerados; los contadores nunca se reinician.
type EmissionPointUseCase struct {
	points repository.EmissionPointRepository
	log    *logger.Logger
}

// NewEmissionPointUseCase construye el caso de uso.
func NewEmissionPointUseCase(points repository.EmissionPointRepository, log *logger.Logger) *EmissionPointUseCase {
	return &EmissionPointUseCase{points: points, log: log}
}

// Create da de alta un punto de emisión con sus contadores en cero.
func (uc *EmissionPointUseCase) Create(ctx context.Context, companyID string, req *dto.CreateEmissionPointRequest) (*entity.EmissionPoint, error) {
	if !isThreeDigits(req.EstablishmentCode) || !isThreeDigits(req.EmissionPointCode) {
		return nil, fmt.Errorf("%w: establecimiento y punto de emisión son códigos de 3 dígitos", domain.ErrInvalidInput)
	}

	ep := &entity.EmissionPoint{
		CompanyID:         companyID,
		EstablishmentCode: req.EstablishmentCode,
		EmissionPointCode: req.EmissionPointCode,
		IsActive:          true,
	}
	if err := uc.points.Create(ctx, ep); err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("emission_point_id", ep.ID).
		Str("company_id", companyID).
		Str("code", ep.EstablishmentCode+"-"+ep.EmissionPointCode).
		Msg("punto de emisión creado")
	return ep, nil
}

// List lista los puntos de emisión del tenant.
func (uc *EmissionPointUseCase) List(ctx context.Context, companyID string) ([]*entity.EmissionPoint, error) {
	return uc.points.ListByCompany(ctx, companyID)
}

// SetActive activa o desactiva el punto de emisión.
func (uc *EmissionPointUseCase) SetActive(ctx context.Context, companyID, id string, active bool) (*entity.EmissionPoint, error) {
	if err := uc.points.SetActive(ctx, companyID, id, active); err != nil {
		return nil, err
	}
	ep, err := uc.points.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ep == nil {
		return nil, domain.ErrEmissionPointNotFound
	}
	uc.log.Info().
		Str("emission_point_id", id).
		Bool("active", active).
		Msg("punto de emisión actualizado")
	return ep, nil
}

func isThreeDigits(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
