package sri_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davcruz/facturador-api/pkg/sri"
)

func TestValidateRUC_SociedadValida(t *testing.T) {
	// Tercer dígito 9 (sociedad): pesos 4,3,2,7,6,5,4,3,2 sobre 179000000
	// -> suma 43, residuo 10, verificador 1.
	assert.NoError(t, sri.ValidateRUC("1790000001001"))
}

func TestValidateRUC_PersonaNaturalValida(t *testing.T) {
	// Cédula 1712345675 (módulo 10) + sufijo 001.
	assert.NoError(t, sri.ValidateRUC("1712345675001"))
}

func TestValidateRUC_EntidadPublicaValida(t *testing.T) {
	// Tercer dígito 6 (pública): pesos 3,2,7,6,5,4,3,2 sobre 17600000
	// -> suma 59, residuo 4, verificador 7.
	assert.NoError(t, sri.ValidateRUC("1760000070001"))
}

func TestValidateRUC_Errores(t *testing.T) {
	cases := []struct {
		name string
		ruc  string
	}{
		{"longitud incorrecta", "179000000"},
		{"provincia inválida", "2590000001001"},
		{"verificador sociedad incorrecto", "1790000002001"},
		{"verificador cédula incorrecto", "1712345670001"},
		{"tercer dígito inválido", "1780000001001"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, sri.ValidateRUC(tc.ruc))
		})
	}
}

func TestValidateCedula(t *testing.T) {
	assert.NoError(t, sri.ValidateCedula("1712345675"))
	assert.Error(t, sri.ValidateCedula("1712345670"))
	assert.Error(t, sri.ValidateCedula("171234567"))
}
