// Package sri contiene catálogos, validaciones y algoritmos alineados a la
// Ficha Técnica de Comprobantes Electrónicos del SRI (Ecuador), esquema offline.
package sri

// =============================================================================
// Tabla 3 - Tipos de comprobante (codDoc)
// =============================================================================

const (
	DocTypeInvoice    = "01" // Factura
	DocTypeCreditNote = "04" // Nota de crédito
	DocTypeDebitNote  = "05" // Nota de débito
	DocTypeRetention  = "07" // Comprobante de retención
)

// ValidDocumentTypeCodes códigos de comprobante soportados por el motor de emisión.
var ValidDocumentTypeCodes = map[string]bool{
	DocTypeInvoice:    true,
	DocTypeCreditNote: true,
	DocTypeDebitNote:  true,
	DocTypeRetention:  true,
}

// =============================================================================
// Tabla 4 - Ambiente
// =============================================================================

const (
	EnvironmentTest       = "1" // Pruebas
	EnvironmentProduction = "2" // Producción
)

// =============================================================================
// Tabla 2 - Tipo de emisión
// =============================================================================

const (
	EmissionNormal = "1" // Emisión normal
)

// =============================================================================
// Tabla 6 - Tipos de identificación del comprador
// =============================================================================

const (
	IdentificationTypeRUC            = "04" // RUC
	IdentificationTypeCedula         = "05" // Cédula de identidad
	IdentificationTypePasaporte      = "06" // Pasaporte
	IdentificationTypeConsumidorFinal = "07" // Consumidor final (9999999999999)
	IdentificationTypeExterior       = "08" // Identificación del exterior
)

// ConsumidorFinalID identificación genérica para ventas a consumidor final.
const ConsumidorFinalID = "9999999999999"

// =============================================================================
// Tabla 16/17 - Impuestos y tarifas de IVA
// =============================================================================

// TaxCodeIVA código de impuesto IVA en detalles y totales.
const TaxCodeIVA = "2"

// Códigos de porcentaje de IVA (codigoPorcentaje).
const (
	IVARate0        = "0" // 0%
	IVARate12       = "2" // 12%
	IVARate14       = "3" // 14%
	IVARate15       = "4" // 15%
	IVARate5        = "5" // 5%
	IVANoObjeto     = "6" // No objeto de impuesto
	IVAExento       = "7" // Exento de IVA
)

// ivaRateCodes tarifa (porcentaje entero) -> codigoPorcentaje.
var ivaRateCodes = map[string]string{
	"0":  IVARate0,
	"5":  IVARate5,
	"12": IVARate12,
	"14": IVARate14,
	"15": IVARate15,
}

// IVAPercentageCode devuelve el codigoPorcentaje para una tarifa de IVA entera
// ("15" -> "4"). Retorna false si la tarifa no está catalogada.
func IVAPercentageCode(rate string) (string, bool) {
	code, ok := ivaRateCodes[rate]
	return code, ok
}

// =============================================================================
// Moneda y leyendas
// =============================================================================

const (
	CurrencyDolar = "DOLAR"

	ObligadoContabilidadSI = "SI"
	ObligadoContabilidadNO = "NO"
)
