package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davcruz/facturador-api/internal/application/billing"
	"github.com/davcruz/facturador-api/internal/domain"
	"github.com/davcruz/facturador-api/internal/domain/entity"
	"github.com/davcruz/facturador-api/pkg/logger"
)

type fakeRIDEGenerator struct {
	calls int
	out   []byte
}

func (g *fakeRIDEGenerator) GenerateRIDE(_ context.Context, _ *entity.TaxDocument, _ *entity.Company, _ *entity.Customer, _ []billing.DocumentLineForPDF) ([]byte, error) {
	g.calls++
	return g.out, nil
}

func newRideEnv(t *testing.T) (*fakeDocRepo, *fakeRIDEGenerator, *billing.RideUseCase) {
	t.Helper()
	docs := newFakeDocRepo()
	gen := &fakeRIDEGenerator{out: []byte("%PDF-1.7 ride")}
	uc := billing.NewRideUseCase(
		docs,
		newFakeCompanyRepo(testCompany()),
		newFakeCustomerRepo(testCustomer()),
		newFakeStore(),
		gen,
		logger.Nop(),
	)
	return docs, gen, uc
}

func TestGetRIDE_GeneraUnaVezYCachea(t *testing.T) {
	docs, gen, uc := newRideEnv(t)
	doc := testDraftDocument(docs)
	doc.Status = entity.StatusAuthorized
	require.NoError(t, docs.Update(context.Background(), doc))

	first, err := uc.GetRIDE(context.Background(), testCompanyID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, gen.out, first)
	assert.Equal(t, 1, gen.calls)

	saved, err := docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.RIDEPath)

	// Segunda lectura: se sirve el artefacto guardado, sin regenerar.
	second, err := uc.GetRIDE(context.Background(), testCompanyID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, gen.calls)
}

func TestGetRIDE_SoloParaAutorizados(t *testing.T) {
	docs, gen, uc := newRideEnv(t)
	doc := testDraftDocument(docs)

	_, err := uc.GetRIDE(context.Background(), testCompanyID, doc.ID)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 0, gen.calls)
}

func TestGetRIDE_DisponibleTrasEnvioYPago(t *testing.T) {
	docs, _, uc := newRideEnv(t)
	for _, status := range []string{entity.StatusSent, entity.StatusPaid, entity.StatusOverdue} {
		doc := testDraftDocument(docs)
		doc.Status = status
		require.NoError(t, docs.Update(context.Background(), doc))

		pdf, err := uc.GetRIDE(context.Background(), testCompanyID, doc.ID)
		require.NoError(t, err, "estado %s", status)
		assert.NotEmpty(t, pdf)
	}
}
