package repository

import (
	"context"

	"github.com/davcruz/facturador-api/internal/domain/entity"
)

// CertificateRepository puerto de persistencia del certificado de firma del tenant.
type CertificateRepository interface {
	// Upsert crea o reemplaza el certificado del tenant (uno por empresa).
	Upsert(ctx context.Context, cert *entity.Certificate) error
	// GetByCompany retorna nil, nil si el tenant no tiene certificado cargado.
	GetByCompany(ctx context.Context, companyID string) (*entity.Certificate, error)
}
