// Package sri implementa la generación de XML, el envío SOAP y la consulta de
// autorización de comprobantes electrónicos ante el SRI (Ecuador).
package sri

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/davcruz/facturador-api/internal/domain/entity"
)

// ── Constantes de entorno ──────────────────────────────────────────────────────

const (
	// AppEnvTest apunta a los WS de certificación del SRI (celcer).
	AppEnvTest = "test"
	// AppEnvProd apunta a los WS de producción del SRI (cel).
	AppEnvProd = "prod"
	// AppEnvDev es el identificador local: no envía al WS SRI.
	AppEnvDev = "dev"
)

// ── Contexto de construcción de XML ────────────────────────────────────────────

// DocumentLineForXML línea de comprobante con los datos ya resueltos para el XML.
type DocumentLineForXML struct {
	ProductCode string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	Subtotal    decimal.Decimal // base imponible de la línea
	TaxRate     decimal.Decimal // tarifa IVA en porcentaje entero (0, 12, 15)
}

// TaxSummaryLine agregado de impuestos por codigoPorcentaje (totalImpuesto).
type TaxSummaryLine struct {
	PercentageCode string // codigoPorcentaje del catálogo IVA
	Rate           decimal.Decimal
	Base           decimal.Decimal
	Amount         decimal.Decimal
}

// DocumentBuildContext contexto con todos los datos para construir el XML del
// comprobante. La clave de acceso ya debe estar asignada.
type DocumentBuildContext struct {
	Document *entity.TaxDocument
	Company  *entity.Company  // emisor (infoTributaria)
	Customer *entity.Customer // comprador
	Lines    []DocumentLineForXML

	Environment  string // ambiente SRI: "1" pruebas, "2" producción
	EmissionType string // tipoEmision: "1" normal
}

// ── Puertos SOAP ───────────────────────────────────────────────────────────────

// SRIMessage mensaje informativo o de error devuelto por el SRI.
type SRIMessage struct {
	Identifier     string // identificador del mensaje (ej. "45")
	Message        string
	AdditionalInfo string
	Type           string // ERROR | ADVERTENCIA
}

// ReceptionResult resultado de validarComprobante (recepción).
type ReceptionResult struct {
	Estado   string // RECIBIDA | DEVUELTA
	Messages []SRIMessage
}

// Received reporta si el SRI aceptó el comprobante para procesamiento.
func (r *ReceptionResult) Received() bool { return r.Estado == "RECIBIDA" }

// AuthorizationResult resultado de autorizacionComprobante.
type AuthorizationResult struct {
	Estado              string // AUTORIZADO | NO AUTORIZADO | EN PROCESO
	AuthorizationNumber string
	AuthorizedAt        *time.Time
	Environment         string
	Messages            []SRIMessage
	// Found es false cuando el SRI no tiene registro de la clave de acceso
	// (numeroComprobantes == 0): el comprobante nunca llegó y debe reenviarse.
	Found bool
}

// Authorized reporta si el comprobante quedó autorizado.
func (r *AuthorizationResult) Authorized() bool { return r.Estado == "AUTORIZADO" }

// Rejected reporta el rechazo definitivo del SRI para esta clave de acceso.
func (r *AuthorizationResult) Rejected() bool { return r.Estado == "NO AUTORIZADO" }

// SRIGateway define el puerto de salida hacia los WS del SRI. La implementación
// concreta usa SOAP; para tests se inyecta un doble.
type SRIGateway interface {
	// SubmitReception envía el XML firmado (Base64 sobre el wire) al WS de
	// recepción. Un error no-nil indica fallo de transporte; un rechazo de
	// negocio llega como ReceptionResult con Estado DEVUELTA.
	SubmitReception(ctx context.Context, signedXML []byte) (*ReceptionResult, error)
	// CheckAuthorization consulta el estado de autorización por clave de acceso.
	CheckAuthorization(ctx context.Context, accessKey string) (*AuthorizationResult, error)
}
