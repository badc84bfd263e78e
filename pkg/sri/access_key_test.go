package sri_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davcruz/facturador-api/pkg/sri"
)

// ──────────────────────────────────────────────────────────────────────────────
// La clave de acceso es el identificador legal del comprobante ante el SRI:
// estos tests fijan el layout de 49 dígitos y el algoritmo módulo 11 del
// verificador. Si alguien cambia los pesos, los anchos o el orden de los
// campos, fallan de inmediato.
// ──────────────────────────────────────────────────────────────────────────────

func buildTestParams() *sri.AccessKeyParams {
	return &sri.AccessKeyParams{
		IssueDate:         time.Date(2025, 11, 29, 0, 0, 0, 0, time.UTC),
		DocumentTypeCode:  sri.DocTypeInvoice,
		RUC:               "1790000001001",
		Environment:       sri.EnvironmentTest,
		EstablishmentCode: "001",
		EmissionPointCode: "002",
		Sequential:        42,
		NumericCode:       "12345678",
		EmissionType:      sri.EmissionNormal,
	}
}

func TestBuildAccessKey_LongitudYLayout(t *testing.T) {
	key, err := sri.BuildAccessKey(buildTestParams())
	require.NoError(t, err)
	require.Len(t, key, sri.AccessKeyLength)

	// Campos en sus posiciones fijas
	assert.Equal(t, "29112025", key[0:8], "fecha ddMMyyyy")
	assert.Equal(t, "01", key[8:10], "codDoc")
	assert.Equal(t, "1790000001001", key[10:23], "RUC")
	assert.Equal(t, "1", key[23:24], "ambiente")
	assert.Equal(t, "001002", key[24:30], "serie estab+ptoEmi")
	assert.Equal(t, "000000042", key[30:39], "secuencial con ceros")
	assert.Equal(t, "12345678", key[39:47], "código numérico")
	assert.Equal(t, "1", key[47:48], "tipo de emisión")
}

func TestBuildAccessKey_Determinista(t *testing.T) {
	key1, err1 := sri.BuildAccessKey(buildTestParams())
	key2, err2 := sri.BuildAccessKey(buildTestParams())
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, key1, key2, "los mismos parámetros deben producir la misma clave")
}

func TestBuildAccessKey_VerificadorSatisfaceModulo11(t *testing.T) {
	key, err := sri.BuildAccessKey(buildTestParams())
	require.NoError(t, err)
	assert.NoError(t, sri.ValidateAccessKey(key))
}

func TestBuildAccessKey_SecuencialDistintoClaveDistinta(t *testing.T) {
	p1 := buildTestParams()
	p2 := buildTestParams()
	p2.Sequential = 43

	key1, _ := sri.BuildAccessKey(p1)
	key2, _ := sri.BuildAccessKey(p2)
	assert.NotEqual(t, key1, key2)
}

// ── Vectores exactos del dígito verificador ───────────────────────────────────

func TestComputeCheckDigit_Vectores(t *testing.T) {
	cases := []struct {
		name     string
		digits   string
		expected byte
	}{
		// 48 unos: suma = 8*(2+3+4+5+6+7) = 216; 216 mod 11 = 7; 11-7 = 4
		{"todos unos", strings.Repeat("1", 48), '4'},
		// 48 ceros: suma = 0; 11-0 = 11 -> el dígito es 0
		{"resultado once es cero", strings.Repeat("0", 48), '0'},
		// ...0006: suma = 12; 12 mod 11 = 1; 11-1 = 10 -> el dígito es 1
		{"resultado diez es uno", strings.Repeat("0", 47) + "6", '1'},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := sri.ComputeCheckDigit(tc.digits)
			require.NoError(t, err)
			assert.Equal(t, string(tc.expected), string(got))
			assert.NoError(t, sri.ValidateAccessKey(tc.digits+string(tc.expected)))
		})
	}
}

func TestValidateAccessKey_RechazaVerificadorIncorrecto(t *testing.T) {
	key := strings.Repeat("1", 48) + "5" // el correcto es 4
	assert.Error(t, sri.ValidateAccessKey(key))
}

func TestValidateAccessKey_RechazaLongitudIncorrecta(t *testing.T) {
	assert.Error(t, sri.ValidateAccessKey("123"))
}

// ── Errores de validación de parámetros ───────────────────────────────────────

func TestBuildAccessKey_ErroresDeParametros(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(*sri.AccessKeyParams)
	}{
		{"codDoc no soportado", func(p *sri.AccessKeyParams) { p.DocumentTypeCode = "06" }},
		{"RUC corto", func(p *sri.AccessKeyParams) { p.RUC = "179000000" }},
		{"ambiente inválido", func(p *sri.AccessKeyParams) { p.Environment = "3" }},
		{"establecimiento corto", func(p *sri.AccessKeyParams) { p.EstablishmentCode = "1" }},
		{"punto de emisión corto", func(p *sri.AccessKeyParams) { p.EmissionPointCode = "2" }},
		{"secuencial cero", func(p *sri.AccessKeyParams) { p.Sequential = 0 }},
		{"código numérico corto", func(p *sri.AccessKeyParams) { p.NumericCode = "1234" }},
	}
	for _, m := range mutations {
		t.Run(m.name, func(t *testing.T) {
			p := buildTestParams()
			m.mutate(p)
			_, err := sri.BuildAccessKey(p)
			assert.Error(t, err)
		})
	}
}

func TestNewNumericCode_OchoDigitos(t *testing.T) {
	for i := 0; i < 20; i++ {
		code := sri.NewNumericCode()
		require.Len(t, code, 8)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9')
		}
	}
}
