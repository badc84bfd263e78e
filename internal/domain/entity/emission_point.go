package entity

import "time"

// EmissionPoint representa un punto de emisión autorizado dentro de un
// establecimiento. Lleva cuatro contadores monótonos independientes, uno por
// tipo de comprobante; solo el SequenceAllocator (repositorio PostgreSQL) los
// incrementa, nunca se decrementan ni se reinician.
type EmissionPoint struct {
	ID                string
	CompanyID         string
	EstablishmentCode string // 3 dígitos (ej: 001)
	EmissionPointCode string // 3 dígitos (ej: 002)
	IsActive          bool

	// Último secuencial asignado por tipo de comprobante.
	InvoiceSequential    int64
	CreditNoteSequential int64
	DebitNoteSequential  int64
	RetentionSequential  int64

	CreatedAt time.Time
	UpdatedAt time.Time
}
