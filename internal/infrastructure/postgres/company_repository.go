package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/davcruz/facturador-api/internal/domain"
	"github.com/davcruz/facturador-api/internal/domain/entity"
	"github.com/davcruz/facturador-api/internal/domain/repository"
)

var _ repository.CompanyRepository = (*CompanyRepo)(nil)

type CompanyRepo struct {
	q Querier
}

func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

func (r *CompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	if company.ID == "" {
		company.ID = uuid.New().String()
	}
	if company.Status == "" {
		company.Status = "active"
	}
	const q = `
		INSERT INTO companies
			(id, name, trade_name, ruc, address, obligado_contabilidad, email, phone, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())`
	_, err := r.q.Exec(ctx, q,
		company.ID, company.Name, nullIfEmpty(company.TradeName), company.RUC,
		company.Address, company.ObligadoContabilidad,
		nullIfEmpty(company.Email), nullIfEmpty(company.Phone), company.Status,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: RUC %s ya registrado", domain.ErrDuplicate, company.RUC)
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	return r.getBy(ctx, "id", id)
}

func (r *CompanyRepo) GetByRUC(ctx context.Context, ruc string) (*entity.Company, error) {
	return r.getBy(ctx, "ruc", ruc)
}

func (r *CompanyRepo) getBy(ctx context.Context, col, val string) (*entity.Company, error) {
	q := fmt.Sprintf(`
		SELECT id, name, trade_name, ruc, address, obligado_contabilidad, email, phone, status, created_at, updated_at
		FROM companies WHERE %s = $1`, col)
	var c entity.Company
	var tradeName, email, phone *string
	err := r.q.QueryRow(ctx, q, val).Scan(
		&c.ID, &c.Name, &tradeName, &c.RUC, &c.Address, &c.ObligadoContabilidad,
		&email, &phone, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	c.TradeName = derefStr(tradeName)
	c.Email = derefStr(email)
	c.Phone = derefStr(phone)
	return &c, nil
}
