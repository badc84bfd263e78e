package billing_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davcruz/facturador-api/internal/application/billing"
	"github.com/davcruz/facturador-api/internal/domain"
	"github.com/davcruz/facturador-api/internal/domain/entity"
	infrasri "github.com/davcruz/facturador-api/internal/infrastructure/sri"
	"github.com/davcruz/facturador-api/pkg/logger"
)

type submitEnv struct {
	docs    *fakeDocRepo
	logs    *fakeLogRepo
	store   *fakeStore
	gateway *fakeGateway
	uc      *billing.SubmitDocumentUseCase
}

func newSubmitEnv(t *testing.T, gateway *fakeGateway) *submitEnv {
	t.Helper()
	docs := newFakeDocRepo()
	logs := &fakeLogRepo{}
	store := newFakeStore()
	recorder := billing.NewErrorRecorder(logs, logger.Nop())
	uc := billing.NewSubmitDocumentUseCase(docs, gateway, store, recorder, logger.Nop())
	return &submitEnv{docs: docs, logs: logs, store: store, gateway: gateway, uc: uc}
}

// pendingAuthorizationDocument deja un comprobante firmado listo para enviar.
func pendingAuthorizationDocument(t *testing.T, env *submitEnv) *entity.TaxDocument {
	t.Helper()
	doc := testDraftDocument(env.docs)
	doc.Status = entity.StatusPendingAuthorization
	doc.AccessKey = "2911202501179000000100110011000000000421234567818"
	path, err := env.store.Save(doc.CompanyID, doc.ID, "comprobante-firmado.xml", []byte("<factura id=\"comprobante\"></factura>"))
	require.NoError(t, err)
	doc.SignedXMLPath = path
	require.NoError(t, env.docs.Update(context.Background(), doc))
	return doc
}

func TestSubmit_Recibida(t *testing.T) {
	env := newSubmitEnv(t, &fakeGateway{
		receptions: []*infrasri.ReceptionResult{{Estado: "RECIBIDA"}},
	})
	doc := pendingAuthorizationDocument(t, env)

	got, err := env.uc.Submit(context.Background(), testCompanyID, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusPendingAuthorization, got.Status)
	require.NotNil(t, got.SubmittedAt)
	assert.Equal(t, 1, env.gateway.submitCalls)
	assert.Empty(t, env.logs.entries)
}

func TestSubmit_DevueltaEsRechazoTerminal(t *testing.T) {
	env := newSubmitEnv(t, &fakeGateway{
		receptions: []*infrasri.ReceptionResult{{
			Estado: "DEVUELTA",
			Messages: []infrasri.SRIMessage{{
				Identifier:     "45",
				Message:        "ERROR SECUENCIAL REGISTRADO",
				AdditionalInfo: "secuencial ya autorizado",
			}},
		}},
	})
	doc := pendingAuthorizationDocument(t, env)

	got, err := env.uc.Submit(context.Background(), testCompanyID, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusRejected, got.Status)
	assert.Contains(t, got.SRIErrors, "[45] ERROR SECUENCIAL REGISTRADO")
	assert.Contains(t, got.SRIErrors, "secuencial ya autorizado")

	rows, lerr := env.logs.ListByDocument(context.Background(), doc.ID)
	require.NoError(t, lerr)
	require.Len(t, rows, 1)
	assert.Equal(t, billing.CodeSRIRejected, rows[0].ErrorCode)
	assert.Equal(t, entity.OperationSubmitReception, rows[0].Operation)
}

func TestSubmit_FalloDeTransporteNoMutaEstado(t *testing.T) {
	env := newSubmitEnv(t, &fakeGateway{
		receptionErrs: []error{fmt.Errorf("%w: recepción agotó reintentos", domain.ErrSRIUnavailable)},
	})
	doc := pendingAuthorizationDocument(t, env)

	_, err := env.uc.Submit(context.Background(), testCompanyID, doc.ID)
	require.ErrorIs(t, err, domain.ErrSRIUnavailable)

	saved, gerr := env.docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, gerr)
	assert.Equal(t, entity.StatusPendingAuthorization, saved.Status)
	assert.Nil(t, saved.SubmittedAt)

	rows, lerr := env.logs.ListByDocument(context.Background(), doc.ID)
	require.NoError(t, lerr)
	require.Len(t, rows, 1)
	assert.Equal(t, billing.CodeSRIUnavailable, rows[0].ErrorCode)
}

// Un timeout posterior a una recepción exitosa no debe producir doble envío:
// si el SRI ya conoce la clave, se aplica su veredicto sin reenviar.
func TestSubmit_TrasRecepcionPreviaConsultaAntesDeReenviar(t *testing.T) {
	authorizedAt := time.Date(2025, 11, 29, 12, 0, 0, 0, time.UTC)
	env := newSubmitEnv(t, &fakeGateway{
		authorizations: []*infrasri.AuthorizationResult{{
			Found:               true,
			Estado:              "AUTORIZADO",
			AuthorizationNumber: "2911202501179000000100110011000000000421234567818",
			AuthorizedAt:        &authorizedAt,
		}},
	})
	doc := pendingAuthorizationDocument(t, env)
	submittedAt := time.Now().Add(-time.Minute)
	doc.SubmittedAt = &submittedAt
	require.NoError(t, env.docs.Update(context.Background(), doc))

	got, err := env.uc.Submit(context.Background(), testCompanyID, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusAuthorized, got.Status)
	assert.Equal(t, 0, env.gateway.submitCalls, "no debe reenviar una clave ya conocida por el SRI")
	assert.Equal(t, 1, env.gateway.checkCalls)
}

// Un timeout local puede ocurrir después de que la entrega llegó al SRI: el
// reintento debe consultar la autorización primero aunque nunca se haya
// registrado la recepción, y no reenviar si la clave ya fue resuelta.
func TestSubmit_TimeoutLocalConsultaAntesDelReintento(t *testing.T) {
	authorizedAt := time.Date(2025, 11, 29, 12, 0, 0, 0, time.UTC)
	env := newSubmitEnv(t, &fakeGateway{
		receptionErrs: []error{fmt.Errorf("%w: recepción agotó reintentos", domain.ErrSRIUnavailable)},
		authorizations: []*infrasri.AuthorizationResult{{
			Found:               true,
			Estado:              "AUTORIZADO",
			AuthorizationNumber: "2911202501179000000100110011000000000421234567818",
			AuthorizedAt:        &authorizedAt,
		}},
	})
	doc := pendingAuthorizationDocument(t, env)

	// Primer intento: el transporte falla localmente, SubmittedAt queda nil,
	// pero el envío sí llegó al SRI.
	_, err := env.uc.Submit(context.Background(), testCompanyID, doc.ID)
	require.ErrorIs(t, err, domain.ErrSRIUnavailable)

	saved, gerr := env.docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, gerr)
	assert.Nil(t, saved.SubmittedAt)

	// Reintento: consulta antes de reenviar y aplica el veredicto.
	got, err := env.uc.Submit(context.Background(), testCompanyID, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusAuthorized, got.Status)
	assert.Equal(t, 1, env.gateway.checkCalls)
	assert.Equal(t, 1, env.gateway.submitCalls, "el reintento no debe llamar a recepción de nuevo")
}

func TestSubmit_ReenviaSoloSiElSRINoConoceLaClave(t *testing.T) {
	env := newSubmitEnv(t, &fakeGateway{
		authorizations: []*infrasri.AuthorizationResult{{Found: false}},
		receptions:     []*infrasri.ReceptionResult{{Estado: "RECIBIDA"}},
	})
	doc := pendingAuthorizationDocument(t, env)
	submittedAt := time.Now().Add(-time.Minute)
	doc.SubmittedAt = &submittedAt
	require.NoError(t, env.docs.Update(context.Background(), doc))

	got, err := env.uc.Submit(context.Background(), testCompanyID, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, env.gateway.checkCalls)
	assert.Equal(t, 1, env.gateway.submitCalls)
	assert.Equal(t, entity.StatusPendingAuthorization, got.Status)
}

func TestSubmit_EstadosFueraDeCurso(t *testing.T) {
	env := newSubmitEnv(t, &fakeGateway{})

	draft := testDraftDocument(env.docs)
	_, err := env.uc.Submit(context.Background(), testCompanyID, draft.ID)
	require.ErrorIs(t, err, domain.ErrConflict)

	authorized := testDraftDocument(env.docs)
	authorized.Status = entity.StatusAuthorized
	require.NoError(t, env.docs.Update(context.Background(), authorized))

	got, err := env.uc.Submit(context.Background(), testCompanyID, authorized.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAuthorized, got.Status)
	assert.Equal(t, 0, env.gateway.submitCalls)
}
