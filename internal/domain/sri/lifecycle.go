// Package sri define la máquina de estados del ciclo de vida de un
// comprobante electrónico. Es la única autoridad sobre qué transiciones son
// legales; todo componente que mute el estado debe pasar por Transition.
//
// Grafo:
//
//	DRAFT → PENDING_SIGNATURE → PENDING_AUTHORIZATION → AUTHORIZED | REJECTED
//	AUTHORIZED → SENT → PAID | OVERDUE
//
// REJECTED es terminal para esa clave de acceso: un comprobante corregido se
// vuelve a emitir como borrador nuevo con secuencial nuevo, nunca reutiliza la
// clave.
package sri

import (
	"fmt"

	"github.com/davcruz/facturador-api/internal/domain"
	"github.com/davcruz/facturador-api/internal/domain/entity"
)

// transitions tabla explícita de transiciones legales: estado origen -> destinos.
var transitions = map[string][]string{
	entity.StatusDraft:                {entity.StatusPendingSignature},
	entity.StatusPendingSignature:     {entity.StatusPendingAuthorization},
	entity.StatusPendingAuthorization: {entity.StatusAuthorized, entity.StatusRejected},
	entity.StatusAuthorized:           {entity.StatusSent},
	entity.StatusSent:                 {entity.StatusPaid, entity.StatusOverdue},
	entity.StatusRejected:             {},
	entity.StatusPaid:                 {},
	entity.StatusOverdue:              {},
}

// CanTransition indica si el paso from -> to está en la tabla.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition aplica la transición sobre el documento o retorna ErrConflict si
// no es legal. Nunca salta estados intermedios.
func Transition(doc *entity.TaxDocument, to string) error {
	if doc == nil {
		return fmt.Errorf("sri: documento nulo")
	}
	if !CanTransition(doc.Status, to) {
		return fmt.Errorf("%w: transición %s -> %s no permitida", domain.ErrConflict, doc.Status, to)
	}
	doc.Status = to
	return nil
}

// IsMutable indica si los ítems y totales del comprobante aún son editables.
// A partir de PENDING_AUTHORIZATION el contenido es inmutable; solo el estado
// puede avanzar.
func IsMutable(status string) bool {
	return status == entity.StatusDraft || status == entity.StatusPendingSignature
}

// IsTerminal indica si el estado no admite ninguna transición posterior.
func IsTerminal(status string) bool {
	return len(transitions[status]) == 0
}

// KnownStatus indica si el estado pertenece al grafo.
func KnownStatus(status string) bool {
	_, ok := transitions[status]
	return ok
}
