package repository

import (
	"context"

	"github.com/davcruz/facturador-api/internal/domain/entity"
)

// SriErrorLogRepository bitácora de fallos del ciclo SRI. Solo inserta; las
// filas jamás se actualizan después de creadas.
type SriErrorLogRepository interface {
	Append(ctx context.Context, logEntry *entity.SriErrorLog) error
	// CountByDocumentAndOperation cuenta los intentos ya registrados, para
	// numerar el ordinal Attempt de la siguiente fila.
	CountByDocumentAndOperation(ctx context.Context, documentID, operation string) (int, error)
	ListByDocument(ctx context.Context, documentID string) ([]*entity.SriErrorLog, error)
}
