package sri

import (
	"fmt"
	"unicode"
)

// Pesos módulo 11 para RUC de sociedades (tercer dígito 9): se aplican a los
// 9 primeros dígitos, el décimo es el verificador.
var rucJuridicoWeights = [9]int{4, 3, 2, 7, 6, 5, 4, 3, 2}

// Pesos módulo 11 para RUC de entidades públicas (tercer dígito 6): se aplican
// a los 8 primeros dígitos, el noveno es el verificador.
var rucPublicoWeights = [8]int{3, 2, 7, 6, 5, 4, 3, 2}

// ValidateRUC valida un RUC ecuatoriano de 13 dígitos: provincia, tercer
// dígito según tipo de contribuyente y dígito verificador (módulo 10 para
// personas naturales, módulo 11 para sociedades y entidades públicas).
// Acepta el RUC con o sin separadores.
func ValidateRUC(taxID string) error {
	digits := extractDigits(taxID)
	if len(digits) != 13 {
		return fmt.Errorf("sri: RUC debe tener 13 dígitos, se encontraron %d", len(digits))
	}
	province := int(digits[0]-'0')*10 + int(digits[1]-'0')
	if (province < 1 || province > 24) && province != 30 {
		return fmt.Errorf("sri: código de provincia %02d inválido en el RUC", province)
	}

	third := digits[2] - '0'
	switch {
	case third <= 5: // persona natural: los 10 primeros dígitos son la cédula
		if err := validateCedulaDigits(digits[:10]); err != nil {
			return err
		}
	case third == 9: // sociedad privada o extranjera
		if err := validateMod11(digits, rucJuridicoWeights[:], 9); err != nil {
			return err
		}
	case third == 6: // entidad pública
		if err := validateMod11(digits, rucPublicoWeights[:], 8); err != nil {
			return err
		}
	default:
		return fmt.Errorf("sri: tercer dígito %c del RUC inválido", digits[2])
	}
	return nil
}

// ValidateCedula valida una cédula ecuatoriana de 10 dígitos (módulo 10).
func ValidateCedula(id string) error {
	digits := extractDigits(id)
	if len(digits) != 10 {
		return fmt.Errorf("sri: cédula debe tener 10 dígitos, se encontraron %d", len(digits))
	}
	return validateCedulaDigits(digits)
}

// validateCedulaDigits módulo 10: coeficientes 2,1,2,1... sobre los 9 primeros
// dígitos; productos mayores a 9 restan 9; verificador = (10 - suma mod 10) mod 10.
func validateCedulaDigits(digits []byte) error {
	var sum int
	for i := 0; i < 9; i++ {
		d := int(digits[i] - '0')
		if i%2 == 0 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	expected := byte('0' + (10-sum%10)%10)
	if digits[9] != expected {
		return fmt.Errorf("sri: dígito verificador de cédula inválido: esperado %c, recibido %c", expected, digits[9])
	}
	return nil
}

func validateMod11(digits []byte, weights []int, checkPos int) error {
	var sum int
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	remainder := sum % 11
	var expected byte
	switch remainder {
	case 0:
		expected = '0'
	case 1:
		return fmt.Errorf("sri: RUC con dígito verificador imposible (residuo 1)")
	default:
		expected = byte('0' + (11 - remainder))
	}
	if digits[checkPos] != expected {
		return fmt.Errorf("sri: dígito verificador del RUC inválido: esperado %c, recibido %c", expected, digits[checkPos])
	}
	return nil
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
