package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/davcruz/facturador-api/internal/domain/entity"
	"github.com/davcruz/facturador-api/internal/domain/repository"
)

var _ repository.SriErrorLogRepository = (*SriErrorLogRepo)(nil)

// SriErrorLogRepo bitácora append-only del ciclo SRI. No hay UPDATE ni DELETE.
type SriErrorLogRepo struct {
	q Querier
}

func NewSriErrorLogRepository(q Querier) *SriErrorLogRepo {
	return &SriErrorLogRepo{q: q}
}

func (r *SriErrorLogRepo) Append(ctx context.Context, logEntry *entity.SriErrorLog) error {
	if logEntry.ID == "" {
		logEntry.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO sri_error_logs
			(id, document_id, company_id, operation, error_code, message, raw_payload, attempt, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`
	_, err := r.q.Exec(ctx, q,
		logEntry.ID, logEntry.DocumentID, logEntry.CompanyID, logEntry.Operation,
		logEntry.ErrorCode, logEntry.Message, nullIfEmpty(logEntry.RawPayload), logEntry.Attempt,
	)
	if err != nil {
		return fmt.Errorf("insert sri_error_log: %w", err)
	}
	return nil
}

func (r *SriErrorLogRepo) CountByDocumentAndOperation(ctx context.Context, documentID, operation string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM sri_error_logs WHERE document_id = $1 AND operation = $2`,
		documentID, operation,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sri_error_logs: %w", err)
	}
	return n, nil
}

func (r *SriErrorLogRepo) ListByDocument(ctx context.Context, documentID string) ([]*entity.SriErrorLog, error) {
	const q = `
		SELECT id, document_id, company_id, operation, error_code, message, raw_payload, attempt, created_at
		FROM sri_error_logs
		WHERE document_id = $1
		ORDER BY created_at, attempt`
	rows, err := r.q.Query(ctx, q, documentID)
	if err != nil {
		return nil, fmt.Errorf("list sri_error_logs: %w", err)
	}
	defer rows.Close()
	var list []*entity.SriErrorLog
	for rows.Next() {
		var e entity.SriErrorLog
		var raw *string
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.CompanyID, &e.Operation,
			&e.ErrorCode, &e.Message, &raw, &e.Attempt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sri_error_log: %w", err)
		}
		e.RawPayload = derefStr(raw)
		list = append(list, &e)
	}
	return list, rows.Err()
}
