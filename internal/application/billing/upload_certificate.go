package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/davcruz/facturador-api/internal/domain"
	"github.com/davcruz/facturador-api/internal/domain/entity"
	"github.com/davcruz/facturador-api/internal/domain/repository"
	"github.com/davcruz/facturador-api/internal/infrastructure/sri/signer"
	"github.com/davcruz/facturador-api/pkg/logger"
)

// UploadCertificateUseCase carga el certificado de firma del tenant (.p12).
//
// El blob se descifra una vez para verificar la contraseña y extraer el sujeto
// y la ventana de validez, y se guarda tal cual llegó. Ni la contraseña ni el
// material descifrado aparecen en logs o errores.
type UploadCertificateUseCase struct {
	certs repository.CertificateRepository
	log   *logger.Logger
}

// NewUploadCertificateUseCase construye el caso de uso.
func NewUploadCertificateUseCase(certs repository.CertificateRepository, log *logger.Logger) *UploadCertificateUseCase {
	return &UploadCertificateUseCase{certs: certs, log: log}
}

// Upload valida y guarda el certificado. Reemplaza el anterior si existía.
func (uc *UploadCertificateUseCase) Upload(ctx context.Context, companyID string, blob []byte, password string) (*entity.Certificate, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("%w: el archivo .p12 es requerido", domain.ErrInvalidInput)
	}

	cert, err := signer.LoadFromP12Blob(blob, password)
	if err != nil {
		return nil, err
	}
	leaf := cert.Leaf

	row := &entity.Certificate{
		CompanyID: companyID,
		Blob:      blob,
		Password:  password,
		SubjectCN: leaf.Subject.CommonName,
		NotBefore: leaf.NotBefore,
		NotAfter:  leaf.NotAfter,
	}
	if err := uc.certs.Upsert(ctx, row); err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("company_id", companyID).
		Str("subject_cn", row.SubjectCN).
		Time("not_after", row.NotAfter).
		Msg("certificado de firma cargado")

	if time.Now().After(leaf.NotAfter) {
		uc.log.Warn().
			Str("company_id", companyID).
			Time("not_after", leaf.NotAfter).
			Msg("el certificado cargado ya está expirado")
	}
	return row, nil
}

// Info devuelve los metadatos del certificado cargado, sin el blob ni la
// contraseña. Retorna nil, nil si el tenant no tiene certificado.
func (uc *UploadCertificateUseCase) Info(ctx context.Context, companyID string) (*entity.Certificate, error) {
	row, err := uc.certs.GetByCompany(ctx, companyID)
	if err != nil || row == nil {
		return nil, err
	}
	return &entity.Certificate{
		ID:        row.ID,
		CompanyID: row.CompanyID,
		SubjectCN: row.SubjectCN,
		NotBefore: row.NotBefore,
		NotAfter:  row.NotAfter,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
