package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davcruz/facturador-api/internal/domain/repository"
)

// IssuanceTxRunner ejecuta la sección crítica de emisión (asignar secuencial,
// armar clave de acceso, persistir numeración) en una sola transacción: si
// cualquier paso falla, el incremento del contador se revierte junto con el
// resto y no quedan huecos en la numeración.
type IssuanceTxRunner struct {
	pool *pgxpool.Pool
}

func NewIssuanceTxRunner(pool *pgxpool.Pool) *IssuanceTxRunner {
	return &IssuanceTxRunner{pool: pool}
}

// RunIssuance abre la transacción y entrega repositorios ligados a ella.
// Commit si fn retorna nil; rollback en cualquier otro caso (incluido panic).
func (r *IssuanceTxRunner) RunIssuance(ctx context.Context, fn func(docs repository.TaxDocumentRepository, points repository.EmissionPointRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op tras commit

	if err := fn(NewTaxDocumentRepository(tx), NewEmissionPointRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
