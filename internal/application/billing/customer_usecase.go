package billing

import (
	"context"
	"fmt"

	"github.com/davcruz/facturador-api/internal/application/dto"
	"github.com/davcruz/facturador-api/internal/domain"
	"github.com/davcruz/facturador-api/internal/domain/entity"
	"github.com/davcruz/facturador-api/internal/domain/repository"
	"github.com/davcruz/facturador-api/pkg/logger"
	pkgsri "github.com/davcruz/facturador-api/pkg/sri"
)

// CustomerUseCase CRUD de compradores del tenant.
type CustomerUseCase struct {
	customers repository.CustomerRepository
	log       *logger.Logger
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(customers repository.CustomerRepository, log *logger.Logger) *CustomerUseCase {
	return &CustomerUseCase{customers: customers, log: log}
}

// Create valida la identificación según su tipo y persiste el comprador.
func (uc *CustomerUseCase) Create(ctx context.Context, companyID string, req *dto.CreateCustomerRequest) (*entity.Customer, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name es requerido", domain.ErrInvalidInput)
	}
	if err := validateIdentification(req.IdentificationType, req.Identification); err != nil {
		return nil, err
	}

	customer := &entity.Customer{
		CompanyID:          companyID,
		Name:               req.Name,
		IdentificationType: req.IdentificationType,
		Identification:     req.Identification,
		Email:              req.Email,
		Phone:              req.Phone,
		Address:            req.Address,
	}
	if err := uc.customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("customer_id", customer.ID).
		Str("company_id", companyID).
		Msg("comprador creado")
	return customer, nil
}

// List lista los compradores del tenant.
func (uc *CustomerUseCase) List(ctx context.Context, companyID string, limit, offset int) ([]*entity.Customer, error) {
	return uc.customers.ListByCompany(ctx, companyID, limit, offset)
}

// validateIdentification aplica la validación de catálogo por tipo de
// identificación: RUC y cédula con dígito verificador, consumidor final con la
// identificación genérica de trece nueves.
func validateIdentification(idType, id string) error {
	switch idType {
	case pkgsri.IdentificationTypeRUC:
		if err := pkgsri.ValidateRUC(id); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	case pkgsri.IdentificationTypeCedula:
		if err := pkgsri.ValidateCedula(id); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	case pkgsri.IdentificationTypeConsumidorFinal:
		if id != pkgsri.ConsumidorFinalID {
			return fmt.Errorf("%w: consumidor final usa la identificación %s", domain.ErrInvalidInput, pkgsri.ConsumidorFinalID)
		}
	case pkgsri.IdentificationTypePasaporte, pkgsri.IdentificationTypeExterior:
		if id == "" {
			return fmt.Errorf("%w: identificación requerida", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: tipo de identificación %q no catalogado", domain.ErrInvalidInput, idType)
	}
	return nil
}
