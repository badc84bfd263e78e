package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/davcruz/facturador-api/internal/domain/entity"
	"github.com/davcruz/facturador-api/internal/domain/repository"
)

var _ repository.CertificateRepository = (*CertificateRepo)(nil)

// CertificateRepo persiste el certificado de firma del tenant. La contraseña
// se guarda en la columna password; los errores de esta capa jamás incluyen
// el blob ni la contraseña en el mensaje.
type CertificateRepo struct {
	q Querier
}

func NewCertificateRepository(q Querier) *CertificateRepo {
	return &CertificateRepo{q: q}
}

func (r *CertificateRepo) Upsert(ctx context.Context, cert *entity.Certificate) error {
	if cert.ID == "" {
		cert.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO certificates
			(id, company_id, blob, password, subject_cn, not_before, not_after, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (company_id) DO UPDATE SET
			blob = EXCLUDED.blob,
			password = EXCLUDED.password,
			subject_cn = EXCLUDED.subject_cn,
			not_before = EXCLUDED.not_before,
			not_after = EXCLUDED.not_after,
			updated_at = now()`
	_, err := r.q.Exec(ctx, q,
		cert.ID, cert.CompanyID, cert.Blob, cert.Password,
		cert.SubjectCN, cert.NotBefore, cert.NotAfter,
	)
	if err != nil {
		return fmt.Errorf("upsert certificate: %w", err)
	}
	return nil
}

func (r *CertificateRepo) GetByCompany(ctx context.Context, companyID string) (*entity.Certificate, error) {
	const q = `
		SELECT id, company_id, blob, password, subject_cn, not_before, not_after, created_at, updated_at
		FROM certificates WHERE company_id = $1`
	var c entity.Certificate
	err := r.q.QueryRow(ctx, q, companyID).Scan(
		&c.ID, &c.CompanyID, &c.Blob, &c.Password,
		&c.SubjectCN, &c.NotBefore, &c.NotAfter, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get certificate: %w", err)
	}
	return &c, nil
}
