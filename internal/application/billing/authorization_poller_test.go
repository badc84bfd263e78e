package billing_test

import (
	"context"
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

type pollEnv struct {
	docs    *fakeDocRepo
	logs    *fakeLogRepo
	gateway *fakeGateway
	poller  *billing.AuthorizationPoller
}

func newPollEnv(t *testing.T, gateway *fakeGateway) *pollEnv {
	t.Helper()
	docs := newFakeDocRepo()
	logs := &fakeLogRepo{}
	recorder := billing.NewErrorRecorder(logs, logger.Nop())
	poller := billing.NewAuthorizationPoller(docs, gateway, recorder, logger.Nop())
	return &pollEnv{docs: docs, logs: logs, gateway: gateway, poller: poller}
}

func submittedDocument(t *testing.T, docs *fakeDocRepo) *entity.TaxDocument {
	t.Helper()
	doc := testDraftDocument(docs)
	doc.Status = entity.StatusPendingAuthorization
	doc.AccessKey = "2911202501179000000100110011000000000421234567818"
	submittedAt := time.Now().Add(-time.Minute)
	doc.SubmittedAt = &submittedAt
	require.NoError(t, docs.Update(context.Background(), doc))
	return doc
}

func TestPoll_Autorizado(t *testing.T) {
	authorizedAt := time.Date(2025, 11, 29, 14, 25, 11, 0, time.UTC)
	env := newPollEnv(t, &fakeGateway{
		authorizations: []*infrasri.AuthorizationResult{{
			Found:               true,
			Estado:              "AUTORIZADO",
			AuthorizationNumber: "2911202501179000000100110011000000000421234567818",
			AuthorizedAt:        &authorizedAt,
		}},
	})
	doc := submittedDocument(t, env.docs)

	got, err := env.poller.Poll(context.Background(), testCompanyID, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusAuthorized, got.Status)
	assert.Equal(t, doc.AccessKey, got.AuthorizationNumber)
	require.NotNil(t, got.AuthorizedAt)
	assert.True(t, got.AuthorizedAt.Equal(authorizedAt))
	assert.Empty(t, got.SRIErrors)
}

func TestPoll_EnProcesoNoMuta(t *testing.T) {
	env := newPollEnv(t, &fakeGateway{
		authorizations: []*infrasri.AuthorizationResult{
			{Found: true, Estado: "EN PROCESO"},
			{Found: true, Estado: "EN PROCESO"},
		},
	})
	doc := submittedDocument(t, env.docs)

	for range [2]struct{}{} {
		got, err := env.poller.Poll(context.Background(), testCompanyID, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusPendingAuthorization, got.Status)
	}
	assert.Equal(t, 2, env.gateway.checkCalls)
	assert.Empty(t, env.logs.entries)
}

func TestPoll_NoAutorizado(t *testing.T) {
	env := newPollEnv(t, &fakeGateway{
		authorizations: []*infrasri.AuthorizationResult{{
			Found:  true,
			Estado: "NO AUTORIZADO",
			Messages: []infrasri.SRIMessage{{
				Identifier: "58",
				Message:    "CLAVE ACCESO REGISTRADA",
			}},
		}},
	})
	doc := submittedDocument(t, env.docs)

	got, err := env.poller.Poll(context.Background(), testCompanyID, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusRejected, got.Status)
	assert.Contains(t, got.SRIErrors, "CLAVE ACCESO REGISTRADA")

	rows, lerr := env.logs.ListByDocument(context.Background(), doc.ID)
	require.NoError(t, lerr)
	require.Len(t, rows, 1)
	assert.Equal(t, billing.CodeSRIRejected, rows[0].ErrorCode)
	assert.Equal(t, entity.OperationCheckAuthorization, rows[0].Operation)
}

func TestPoll_ClaveDesconocidaSigueEsperando(t *testing.T) {
	env := newPollEnv(t, &fakeGateway{
		authorizations: []*infrasri.AuthorizationResult{{Found: false}},
	})
	doc := submittedDocument(t, env.docs)

	got, err := env.poller.Poll(context.Background(), testCompanyID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPendingAuthorization, got.Status)
}

func TestPoll_EsIdempotenteSobreResueltos(t *testing.T) {
	env := newPollEnv(t, &fakeGateway{})
	doc := submittedDocument(t, env.docs)
	doc.Status = entity.StatusAuthorized
	require.NoError(t, env.docs.Update(context.Background(), doc))

	got, err := env.poller.Poll(context.Background(), testCompanyID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAuthorized, got.Status)
	assert.Equal(t, 0, env.gateway.checkCalls, "un comprobante resuelto no vuelve a consultarse")
}

func TestPoll_AntesDeEnviarEsConflicto(t *testing.T) {
	env := newPollEnv(t, &fakeGateway{})
	doc := testDraftDocument(env.docs)

	_, err := env.poller.Poll(context.Background(), testCompanyID, doc.ID)
	require.ErrorIs(t, err, domain.ErrConflict)
}
