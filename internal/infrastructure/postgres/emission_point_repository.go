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
	pkgsri "github.com/davcruz/facturador-api/pkg/sri"
)

var _ repository.EmissionPointRepository = (*EmissionPointRepo)(nil)

// sequentialColumns mapea codDoc -> columna de contador. Lista cerrada: el
// nombre de columna jamás viene de entrada del usuario.
var sequentialColumns = map[string]string{
	pkgsri.DocTypeInvoice:    "invoice_sequential",
	pkgsri.DocTypeCreditNote: "credit_note_sequential",
	pkgsri.DocTypeDebitNote:  "debit_note_sequential",
	pkgsri.DocTypeRetention:  "retention_sequential",
}

// EmissionPointRepo implementa EmissionPointRepository sobre PostgreSQL.
// Es el SequenceAllocator del motor: NextSequential hace el read-modify-write
// del contador en un solo UPDATE, de modo que el lock de fila de PostgreSQL
// serializa a los llamadores concurrentes del mismo punto de emisión.
type EmissionPointRepo struct {
	q Querier
}

// NewEmissionPointRepository construye el repositorio. Pasar pool o tx (Querier).
func NewEmissionPointRepository(q Querier) *EmissionPointRepo {
	return &EmissionPointRepo{q: q}
}

func (r *EmissionPointRepo) Create(ctx context.Context, ep *entity.EmissionPoint) error {
	if ep.ID == "" {
		ep.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO emission_points
			(id, company_id, establishment_code, emission_point_code, is_active,
			 invoice_sequential, credit_note_sequential, debit_note_sequential, retention_sequential,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())`
	_, err := r.q.Exec(ctx, q,
		ep.ID, ep.CompanyID, ep.EstablishmentCode, ep.EmissionPointCode, ep.IsActive,
		ep.InvoiceSequential, ep.CreditNoteSequential, ep.DebitNoteSequential, ep.RetentionSequential,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: punto de emisión %s-%s ya existe", domain.ErrDuplicate, ep.EstablishmentCode, ep.EmissionPointCode)
		}
		return fmt.Errorf("insert emission_point: %w", err)
	}
	return nil
}

func (r *EmissionPointRepo) GetByID(ctx context.Context, id string) (*entity.EmissionPoint, error) {
	const q = `
		SELECT id, company_id, establishment_code, emission_point_code, is_active,
		       invoice_sequential, credit_note_sequential, debit_note_sequential, retention_sequential,
		       created_at, updated_at
		FROM emission_points WHERE id = $1`
	ep, err := scanEmissionPoint(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get emission_point: %w", err)
	}
	return ep, nil
}

func (r *EmissionPointRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.EmissionPoint, error) {
	const q = `
		SELECT id, company_id, establishment_code, emission_point_code, is_active,
		       invoice_sequential, credit_note_sequential, debit_note_sequential, retention_sequential,
		       created_at, updated_at
		FROM emission_points
		WHERE company_id = $1
		ORDER BY establishment_code, emission_point_code`
	rows, err := r.q.Query(ctx, q, companyID)
	if err != nil {
		return nil, fmt.Errorf("list emission_points: %w", err)
	}
	defer rows.Close()
	var list []*entity.EmissionPoint
	for rows.Next() {
		ep, err := scanEmissionPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan emission_point: %w", err)
		}
		list = append(list, ep)
	}
	return list, rows.Err()
}

func (r *EmissionPointRepo) SetActive(ctx context.Context, companyID, id string, active bool) error {
	const q = `
		UPDATE emission_points SET is_active = $3, updated_at = now()
		WHERE id = $1 AND company_id = $2`
	tag, err := r.q.Exec(ctx, q, id, companyID, active)
	if err != nil {
		return fmt.Errorf("update emission_point: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEmissionPointNotFound
	}
	return nil
}

// NextSequential incrementa y devuelve el contador del tipo de comprobante en
// una sola sentencia atómica. El UPDATE toma el lock de la fila: N llamadores
// concurrentes sobre el mismo punto de emisión obtienen N valores distintos y
// contiguos; puntos de emisión y tenants distintos no se bloquean entre sí.
// Ejecutado dentro de la transacción de emisión, un rollback revierte también
// el incremento, por lo que nunca queda un hueco permanente sin comprobante.
func (r *EmissionPointRepo) NextSequential(ctx context.Context, companyID, emissionPointID, documentTypeCode string) (int64, error) {
	col, ok := sequentialColumns[documentTypeCode]
	if !ok {
		return 0, fmt.Errorf("%w: tipo de comprobante %q no soportado", domain.ErrInvalidInput, documentTypeCode)
	}

	q := fmt.Sprintf(`
		UPDATE emission_points
		SET %s = %s + 1, updated_at = now()
		WHERE id = $1 AND company_id = $2 AND is_active = true
		RETURNING %s`, col, col, col)

	var seq int64
	err := r.q.QueryRow(ctx, q, emissionPointID, companyID).Scan(&seq)
	if err == nil {
		return seq, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("asignar secuencial: %w", err)
	}

	// Ninguna fila afectada: distinguir inexistente de inactivo.
	var active bool
	err = r.q.QueryRow(ctx,
		`SELECT is_active FROM emission_points WHERE id = $1 AND company_id = $2`,
		emissionPointID, companyID,
	).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrEmissionPointNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("verificar punto de emisión: %w", err)
	}
	if !active {
		return 0, domain.ErrEmissionPointInactive
	}
	return 0, fmt.Errorf("asignar secuencial: estado inconsistente para %s", emissionPointID)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func scanEmissionPoint(row pgxScanner) (*entity.EmissionPoint, error) {
	var ep entity.EmissionPoint
	err := row.Scan(
		&ep.ID, &ep.CompanyID, &ep.EstablishmentCode, &ep.EmissionPointCode, &ep.IsActive,
		&ep.InvoiceSequential, &ep.CreditNoteSequential, &ep.DebitNoteSequential, &ep.RetentionSequential,
		&ep.CreatedAt, &ep.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ep, nil
}
