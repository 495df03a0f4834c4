package repository

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedOwner(t *testing.T, db *gorm.DB) (model.User, model.Client) {
	t.Helper()
	user := model.User{Nom: "Test", Email: "test@exemple.fr", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	client := model.Client{UserID: user.ID, Nom: "Client", StatutPipeline: model.PipelineProspect}
	require.NoError(t, db.Create(&client).Error)
	return user, client
}

func TestQuoteUpdateVersionedRejectsStaleVersion(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuoteRepository(db)
	ctx := context.Background()
	user, client := seedOwner(t, db)

	quote := model.Quote{
		Numero:   "DEV-2025-001",
		UserID:   user.ID,
		ClientID: client.ID,
		Statut:   model.QuoteStatusDraft,
	}
	require.NoError(t, repo.Create(ctx, &quote))

	// First writer wins and bumps the stamp.
	rows, err := repo.UpdateVersioned(ctx, quote.ID, 0, map[string]interface{}{"notes": "premier"})
	require.NoError(t, err)
	require.EqualValues(t, 1, rows)

	reloaded, err := repo.FindByID(ctx, quote.ID, user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.Version)
	require.Equal(t, "premier", reloaded.Notes)

	// A writer still holding the old stamp touches nothing.
	rows, err = repo.UpdateVersioned(ctx, quote.ID, 0, map[string]interface{}{"notes": "perdant"})
	require.NoError(t, err)
	require.EqualValues(t, 0, rows)

	reloaded, err = repo.FindByID(ctx, quote.ID, user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.Version)
	require.Equal(t, "premier", reloaded.Notes)
}

func TestInvoiceUpdateVersionedRejectsStaleVersion(t *testing.T) {
	db := newTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()
	user, client := seedOwner(t, db)

	invoice := model.Invoice{
		Numero:   "FAC-2025-001",
		UserID:   user.ID,
		ClientID: client.ID,
		Statut:   model.InvoiceStatusDraft,
	}
	require.NoError(t, repo.Create(ctx, &invoice))

	rows, err := repo.UpdateVersioned(ctx, invoice.ID, 0, map[string]interface{}{"statut": model.InvoiceStatusSent})
	require.NoError(t, err)
	require.EqualValues(t, 1, rows)

	// The losing writer's status change must not land.
	rows, err = repo.UpdateVersioned(ctx, invoice.ID, 0, map[string]interface{}{"statut": model.InvoiceStatusPaid})
	require.NoError(t, err)
	require.EqualValues(t, 0, rows)

	reloaded, err := repo.FindByID(ctx, invoice.ID, user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.Version)
	require.Equal(t, model.InvoiceStatusSent, reloaded.Statut)
}
