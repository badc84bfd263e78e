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
	"github.com/davcruz/facturador-api/pkg/logger"
)

func newLifecycleEnv(t *testing.T) (*fakeDocRepo, *billing.LifecycleActions) {
	t.Helper()
	docs := newFakeDocRepo()
	return docs, billing.NewLifecycleActions(docs, logger.Nop())
}

func documentInStatus(t *testing.T, docs *fakeDocRepo, status string) *entity.TaxDocument {
	t.Helper()
	doc := testDraftDocument(docs)
	doc.Status = status
	require.NoError(t, docs.Update(context.Background(), doc))
	return doc
}

func TestMarkSent(t *testing.T) {
	docs, actions := newLifecycleEnv(t)

	t.Run("desde autorizado", func(t *testing.T) {
		doc := documentInStatus(t, docs, entity.StatusAuthorized)
		got, err := actions.MarkSent(context.Background(), testCompanyID, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusSent, got.Status)
	})

	t.Run("idempotente sobre pagado", func(t *testing.T) {
		doc := documentInStatus(t, docs, entity.StatusPaid)
		got, err := actions.MarkSent(context.Background(), testCompanyID, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusPaid, got.Status)
	})

	t.Run("sin autorizar es conflicto", func(t *testing.T) {
		doc := documentInStatus(t, docs, entity.StatusPendingAuthorization)
		_, err := actions.MarkSent(context.Background(), testCompanyID, doc.ID)
		require.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestMarkPaid(t *testing.T) {
	docs, actions := newLifecycleEnv(t)

	t.Run("desde enviado", func(t *testing.T) {
		doc := documentInStatus(t, docs, entity.StatusSent)
		got, err := actions.MarkPaid(context.Background(), testCompanyID, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusPaid, got.Status)
	})

	t.Run("idempotente sobre pagado", func(t *testing.T) {
		doc := documentInStatus(t, docs, entity.StatusPaid)
		got, err := actions.MarkPaid(context.Background(), testCompanyID, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusPaid, got.Status)
	})

	t.Run("desde autorizado sin enviar es conflicto", func(t *testing.T) {
		doc := documentInStatus(t, docs, entity.StatusAuthorized)
		_, err := actions.MarkPaid(context.Background(), testCompanyID, doc.ID)
		require.ErrorIs(t, err, domain.ErrConflict)
	})

	// El vencimiento se materializa antes de evaluar el pago: el resultado es
	// el mismo haya o no una lectura intermedia del comprobante.
	t.Run("enviado con vencimiento pasado vence antes del pago", func(t *testing.T) {
		doc := documentInStatus(t, docs, entity.StatusSent)
		due := time.Now().Add(-48 * time.Hour)
		doc.DueDate = &due
		require.NoError(t, docs.Update(context.Background(), doc))

		_, err := actions.MarkPaid(context.Background(), testCompanyID, doc.ID)
		require.ErrorIs(t, err, domain.ErrConflict)

		saved, gerr := docs.GetByID(context.Background(), doc.ID)
		require.NoError(t, gerr)
		assert.Equal(t, entity.StatusOverdue, saved.Status)
	})
}

func TestRefreshOverdue(t *testing.T) {
	now := time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)

	t.Run("enviado con vencimiento pasado transiciona", func(t *testing.T) {
		docs, actions := newLifecycleEnv(t)
		doc := documentInStatus(t, docs, entity.StatusSent)
		due := now.AddDate(0, 0, -1)
		doc.DueDate = &due
		require.NoError(t, docs.Update(context.Background(), doc))

		require.NoError(t, actions.RefreshOverdue(context.Background(), doc, now))
		assert.Equal(t, entity.StatusOverdue, doc.Status)

		saved, err := docs.GetByID(context.Background(), doc.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusOverdue, saved.Status)
	})

	t.Run("vencimiento futuro no muta", func(t *testing.T) {
		docs, actions := newLifecycleEnv(t)
		doc := documentInStatus(t, docs, entity.StatusSent)
		due := now.AddDate(0, 1, 0)
		doc.DueDate = &due

		require.NoError(t, actions.RefreshOverdue(context.Background(), doc, now))
		assert.Equal(t, entity.StatusSent, doc.Status)
	})

	t.Run("sin fecha de vencimiento no muta", func(t *testing.T) {
		docs, actions := newLifecycleEnv(t)
		doc := documentInStatus(t, docs, entity.StatusSent)

		require.NoError(t, actions.RefreshOverdue(context.Background(), doc, now))
		assert.Equal(t, entity.StatusSent, doc.Status)
	})

	t.Run("estados distintos de enviado no mutan", func(t *testing.T) {
		docs, actions := newLifecycleEnv(t)
		doc := documentInStatus(t, docs, entity.StatusAuthorized)
		due := now.AddDate(0, 0, -30)
		doc.DueDate = &due

		require.NoError(t, actions.RefreshOverdue(context.Background(), doc, now))
		assert.Equal(t, entity.StatusAuthorized, doc.Status)
	})
}
