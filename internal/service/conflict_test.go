package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// raceLosingQuoteRepo reports every versioned update as beaten by a
// concurrent writer, the observable outcome of a stale stamp.
type raceLosingQuoteRepo struct {
	repository.QuoteRepository
}

func (raceLosingQuoteRepo) UpdateVersioned(context.Context, uuid.UUID, int, map[string]interface{}) (int64, error) {
	return 0, nil
}

type raceLosingInvoiceRepo struct {
	repository.InvoiceRepository
}

func (raceLosingInvoiceRepo) UpdateVersioned(context.Context, uuid.UUID, int, map[string]interface{}) (int64, error) {
	return 0, nil
}

func TestUpdateQuoteConcurrentEditIsConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	quote := env.createQuote(t, testLine("a", "1", model.UnitUnite, "10", "20"))

	quotes := NewQuoteService(
		raceLosingQuoteRepo{repository.NewQuoteRepository(env.db)},
		repository.NewInvoiceRepository(env.db),
		repository.NewClientRepository(env.db),
		repository.NewSequenceRepository(env.db),
		repository.NewActivityRepository(env.db),
		repository.NewTransactionManager(env.db),
		nil,
	)

	notes := "mise a jour perdante"
	_, err := quotes.UpdateQuote(ctx, env.userID, quote.ID, UpdateQuoteRequest{Notes: &notes})
	require.ErrorIs(t, err, ErrConflict)

	// The losing edit rolled back with the transaction.
	after, err := env.quotes.GetQuote(ctx, env.userID, quote.ID)
	require.NoError(t, err)
	require.Empty(t, after.Notes)
}

func TestUpdateInvoiceConcurrentEditIsConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	invoice := env.createInvoice(t, CreateInvoiceRequest{
		Lignes: []LineInput{testLine("a", "1", model.UnitUnite, "10", "20")},
	})

	invoices := NewInvoiceService(
		raceLosingInvoiceRepo{repository.NewInvoiceRepository(env.db)},
		repository.NewQuoteRepository(env.db),
		repository.NewClientRepository(env.db),
		repository.NewSequenceRepository(env.db),
		repository.NewActivityRepository(env.db),
		repository.NewTransactionManager(env.db),
		nil,
	)

	statut := model.InvoiceStatusSent
	_, err := invoices.UpdateInvoice(ctx, env.userID, invoice.ID, UpdateInvoiceRequest{Statut: &statut})
	require.ErrorIs(t, err, ErrConflict)

	after, err := env.invoices.GetInvoice(ctx, env.userID, invoice.ID)
	require.NoError(t, err)
	require.Equal(t, model.InvoiceStatusDraft, after.Statut)
}
