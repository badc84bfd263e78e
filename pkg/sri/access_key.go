// Cálculo de la clave de acceso de comprobantes electrónicos SRI (Ecuador).
// 49 dígitos: 48 de datos en anchos fijos + 1 dígito verificador módulo 11.

package sri

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// AccessKeyLength longitud total de la clave de acceso (48 datos + 1 verificador).
const AccessKeyLength = 49

// AccessKeyParams contiene los campos de la clave de acceso en el orden exigido
// por la ficha técnica del SRI. Todos los códigos van como string con su ancho
// fijo (se rellenan con ceros a la izquierda donde sean numéricos).
type AccessKeyParams struct {
	IssueDate         time.Time // fecha de emisión (ddMMyyyy, 8)
	DocumentTypeCode  string    // codDoc (2): 01, 04, 05, 07
	RUC               string    // RUC del emisor (13)
	Environment       string    // ambiente (1): 1 pruebas, 2 producción
	EstablishmentCode string    // estab (3)
	EmissionPointCode string    // ptoEmi (3)
	Sequential        int64     // secuencial (9, relleno con ceros)
	NumericCode       string    // código numérico (8, salt por documento)
	EmissionType      string    // tipoEmision (1): 1 normal
}

// BuildAccessKey arma la clave de acceso de 49 dígitos. Es pura y determinista:
// los mismos parámetros producen siempre la misma clave.
func BuildAccessKey(p *AccessKeyParams) (string, error) {
	if p == nil {
		return "", fmt.Errorf("sri: AccessKeyParams es obligatorio")
	}
	if !ValidDocumentTypeCodes[p.DocumentTypeCode] {
		return "", fmt.Errorf("sri: codDoc %q no soportado", p.DocumentTypeCode)
	}
	if len(p.RUC) != 13 || !allDigits(p.RUC) {
		return "", fmt.Errorf("sri: RUC debe tener 13 dígitos")
	}
	if p.Environment != EnvironmentTest && p.Environment != EnvironmentProduction {
		return "", fmt.Errorf("sri: ambiente %q inválido (1 pruebas, 2 producción)", p.Environment)
	}
	if len(p.EstablishmentCode) != 3 || !allDigits(p.EstablishmentCode) {
		return "", fmt.Errorf("sri: establecimiento debe tener 3 dígitos")
	}
	if len(p.EmissionPointCode) != 3 || !allDigits(p.EmissionPointCode) {
		return "", fmt.Errorf("sri: punto de emisión debe tener 3 dígitos")
	}
	if p.Sequential < 1 || p.Sequential > 999_999_999 {
		return "", fmt.Errorf("sri: secuencial %d fuera de rango (1..999999999)", p.Sequential)
	}
	if len(p.NumericCode) != 8 || !allDigits(p.NumericCode) {
		return "", fmt.Errorf("sri: código numérico debe tener 8 dígitos")
	}
	emissionType := p.EmissionType
	if emissionType == "" {
		emissionType = EmissionNormal
	}
	if len(emissionType) != 1 || !allDigits(emissionType) {
		return "", fmt.Errorf("sri: tipo de emisión %q inválido", emissionType)
	}

	base := p.IssueDate.Format("02012006") +
		p.DocumentTypeCode +
		p.RUC +
		p.Environment +
		p.EstablishmentCode +
		p.EmissionPointCode +
		fmt.Sprintf("%09d", p.Sequential) +
		p.NumericCode +
		emissionType

	check, err := ComputeCheckDigit(base)
	if err != nil {
		return "", err
	}
	return base + string(check), nil
}

// ComputeCheckDigit calcula el dígito verificador módulo 11 sobre los 48
// dígitos de datos: pesos 2,3,4,5,6,7 cíclicos desde la derecha, suma de
// productos, 11 - (suma mod 11); si el resultado es 11 el dígito es 0, si es
// 10 el dígito es 1.
func ComputeCheckDigit(digits string) (byte, error) {
	if len(digits) != AccessKeyLength-1 {
		return 0, fmt.Errorf("sri: se requieren 48 dígitos para el verificador, se recibieron %d", len(digits))
	}
	if !allDigits(digits) {
		return 0, fmt.Errorf("sri: la clave de acceso solo admite dígitos")
	}
	var sum int
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		weight++
		if weight > 7 {
			weight = 2
		}
	}
	result := 11 - (sum % 11)
	switch result {
	case 11:
		return '0', nil
	case 10:
		return '1', nil
	default:
		return byte('0' + result), nil
	}
}

// ValidateAccessKey verifica longitud, que todos los caracteres sean dígitos y
// que el dígito 49 satisfaga la relación módulo 11 sobre los 48 anteriores.
func ValidateAccessKey(key string) error {
	if len(key) != AccessKeyLength {
		return fmt.Errorf("sri: la clave de acceso debe tener %d dígitos, tiene %d", AccessKeyLength, len(key))
	}
	expected, err := ComputeCheckDigit(key[:AccessKeyLength-1])
	if err != nil {
		return err
	}
	if key[AccessKeyLength-1] != expected {
		return fmt.Errorf("sri: dígito verificador inválido: esperado %c, recibido %c", expected, key[AccessKeyLength-1])
	}
	return nil
}

// NewNumericCode genera el código numérico de 8 dígitos de la clave de acceso.
// La ficha técnica lo trata como un campo opaco por documento; se genera una
// sola vez al producir el XML y nunca se regenera para el mismo comprobante.
func NewNumericCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(100_000_000))
	if err != nil {
		// rand.Reader no falla en la práctica; un código fijo sigue siendo válido para el SRI.
		return "12345678"
	}
	return fmt.Sprintf("%08d", n.Int64())
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
