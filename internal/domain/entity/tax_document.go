package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de un comprobante electrónico.
// Las transiciones legales viven en internal/domain/sri (máquina de estados);
// ningún componente muta el estado sin pasar por ella.
const (
	StatusDraft                = "DRAFT"                 // Borrador editable, sin secuencial ni clave de acceso
	StatusPendingSignature     = "PENDING_SIGNATURE"     // XML generado, clave de acceso asignada
	StatusPendingAuthorization = "PENDING_AUTHORIZATION" // XML firmado, enviado o por enviar al SRI
	StatusAuthorized           = "AUTHORIZED"            // Autorizado por el SRI
	StatusRejected             = "REJECTED"              // Rechazo terminal del SRI para esta clave de acceso
	StatusSent                 = "SENT"                  // Entregado al cliente (acción manual)
	StatusPaid                 = "PAID"                  // Pagado
	StatusOverdue              = "OVERDUE"               // Vencido sin pago
)

// TaxDocument representa la cabecera de un comprobante electrónico
// (factura, nota de crédito, nota de débito o comprobante de retención).
//
// Invariantes: la clave de acceso se asigna exactamente una vez, al generar el
// XML, y nunca se regenera para la misma instancia; el secuencial jamás se
// reutiliza, aun si el comprobante termina rechazado.
type TaxDocument struct {
	ID              string
	CompanyID       string
	CustomerID      string
	EmissionPointID string
	DocumentType    string // codDoc: 01, 04, 05, 07 (pkg/sri)

	// Numeración asignada por el SequenceAllocator al generar el XML.
	Establishment string // código de establecimiento (3 dígitos, copiado del punto de emisión)
	EmissionPoint string // código de punto de emisión (3 dígitos)
	Sequential    int64  // secuencial por (punto de emisión, tipo); 0 = sin asignar
	Number        string // estab-ptoEmi-secuencial (9 dígitos con ceros); vacío en DRAFT

	Status    string
	IssueDate time.Time
	DueDate   *time.Time

	Subtotal decimal.Decimal // total sin impuestos
	TaxTotal decimal.Decimal // IVA
	Total    decimal.Decimal // importe total

	AccessKey   string // clave de acceso de 49 dígitos; vacía hasta generar el XML
	NumericCode string // código numérico de 8 dígitos embebido en la clave

	// Resultado de la autorización SRI.
	AuthorizationNumber string
	AuthorizedAt        *time.Time
	SubmittedAt         *time.Time // recepción RECIBIDA; guía la decisión de no reenviar
	SRIErrors           string     // mensajes de rechazo del SRI (texto plano)

	// Rutas de artefactos persistidos (único handle; el motor no las re-deriva).
	XMLPath       string
	SignedXMLPath string
	RIDEPath      string

	// Documento sustento para notas de crédito/débito y retenciones.
	ModifiedDocType   string
	ModifiedDocNumber string
	ModifiedDocDate   *time.Time
	Motive            string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaxDocumentItem línea de detalle de un comprobante.
type TaxDocumentItem struct {
	ID          string
	DocumentID  string
	ProductCode string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	Subtotal    decimal.Decimal // cantidad*precio - descuento
	TaxRate     decimal.Decimal // tarifa de IVA en porcentaje entero (0, 12, 15, ...)
}
