package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCreateQuoteComputesTotalsAndNumber(t *testing.T) {
	env := newTestEnv(t)

	quote := env.createQuote(t, testLine("Pose de carrelage", "15", model.UnitM2, "45", "10"))

	require.Equal(t, "DEV-", quote.Numero[:4])
	require.Equal(t, model.QuoteStatusDraft, quote.Statut)
	require.Equal(t, "675.00", quote.MontantHT)
	require.Equal(t, "67.50", quote.TVA)
	require.Equal(t, "742.50", quote.MontantTTC)
	require.Len(t, quote.Lignes, 1)
	require.Equal(t, "675.00", quote.Lignes[0].MontantHT)
}

func TestCreateQuoteMixedRates(t *testing.T) {
	env := newTestEnv(t)

	quote := env.createQuote(t,
		testLine("Renovation salle de bain", "1", model.UnitForfait, "3500", "10"),
		testLine("Fourniture robinetterie", "5", model.UnitUnite, "175", "20"),
	)

	require.Equal(t, "4375.00", quote.MontantHT)
	require.Equal(t, "525.00", quote.TVA)
	require.Equal(t, "4900.00", quote.MontantTTC)
}

func TestCreateQuoteValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  CreateQuoteRequest
	}{
		{"no lines", CreateQuoteRequest{ClientID: env.clientID}},
		{"bad client id", CreateQuoteRequest{ClientID: "not-a-uuid", Lignes: []LineInput{testLine("x", "1", model.UnitUnite, "10", "20")}}},
		{"zero quantity", CreateQuoteRequest{ClientID: env.clientID, Lignes: []LineInput{testLine("x", "0", model.UnitUnite, "10", "20")}}},
		{"unknown unit", CreateQuoteRequest{ClientID: env.clientID, Lignes: []LineInput{testLine("x", "1", "TONNE", "10", "20")}}},
		{"negative price", CreateQuoteRequest{ClientID: env.clientID, Lignes: []LineInput{testLine("x", "1", model.UnitUnite, "-10", "20")}}},
		{"bad tva rate", CreateQuoteRequest{ClientID: env.clientID, Lignes: []LineInput{testLine("x", "1", model.UnitUnite, "10", "19.6")}}},
		{"empty description", CreateQuoteRequest{ClientID: env.clientID, Lignes: []LineInput{testLine("", "1", model.UnitUnite, "10", "20")}}},
		{"bad date", CreateQuoteRequest{ClientID: env.clientID, DateValidite: "31/12/2025", Lignes: []LineInput{testLine("x", "1", model.UnitUnite, "10", "20")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.quotes.CreateQuote(ctx, env.userID, tc.req)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateQuoteUnknownClient(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.quotes.CreateQuote(context.Background(), env.userID, CreateQuoteRequest{
		ClientID: uuid.NewString(),
		Lignes:   []LineInput{testLine("x", "1", model.UnitUnite, "10", "20")},
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestQuoteNumbersAreSequential(t *testing.T) {
	env := newTestEnv(t)

	first := env.createQuote(t, testLine("a", "1", model.UnitUnite, "10", "20"))
	second := env.createQuote(t, testLine("b", "1", model.UnitUnite, "10", "20"))

	require.NotEqual(t, first.Numero, second.Numero)
	require.Equal(t, "001", first.Numero[len(first.Numero)-3:])
	require.Equal(t, "002", second.Numero[len(second.Numero)-3:])
}

func TestUpdateQuoteReplacesLineSet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	quote := env.createQuote(t,
		testLine("a", "1", model.UnitUnite, "100", "20"),
		testLine("b", "1", model.UnitUnite, "200", "20"),
	)

	updated, err := env.quotes.UpdateQuote(ctx, env.userID, quote.ID, UpdateQuoteRequest{
		Lignes: []LineInput{testLine("Peinture murale", "30", model.UnitM2, "25", "10")},
	})
	require.NoError(t, err)
	require.Len(t, updated.Lignes, 1)
	require.Equal(t, "Peinture murale", updated.Lignes[0].Description)
	require.Equal(t, "750.00", updated.MontantHT)
	require.Equal(t, "75.00", updated.TVA)
	require.Equal(t, "825.00", updated.MontantTTC)
	// Number and status survive a content edit.
	require.Equal(t, quote.Numero, updated.Numero)
	require.Equal(t, model.QuoteStatusDraft, updated.Statut)
}

func TestUpdateQuoteEmptyRequest(t *testing.T) {
	env := newTestEnv(t)

	quote := env.createQuote(t, testLine("a", "1", model.UnitUnite, "10", "20"))
	_, err := env.quotes.UpdateQuote(context.Background(), env.userID, quote.ID, UpdateQuoteRequest{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestQuoteStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("draft to sent to accepted", func(t *testing.T) {
		quote := env.createQuote(t, testLine("a", "1", model.UnitUnite, "10", "20"))
		env.setQuoteStatus(t, quote.ID, model.QuoteStatusSent, model.QuoteStatusAccepted)

		got, err := env.quotes.GetQuote(ctx, env.userID, quote.ID)
		require.NoError(t, err)
		require.Equal(t, model.QuoteStatusAccepted, got.Statut)
	})

	t.Run("draft cannot jump to accepted", func(t *testing.T) {
		quote := env.createQuote(t, testLine("a", "1", model.UnitUnite, "10", "20"))
		statut := model.QuoteStatusAccepted
		_, err := env.quotes.UpdateQuote(ctx, env.userID, quote.ID, UpdateQuoteRequest{Statut: &statut})
		require.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("accepted is terminal", func(t *testing.T) {
		quote := env.createQuote(t, testLine("a", "1", model.UnitUnite, "10", "20"))
		env.setQuoteStatus(t, quote.ID, model.QuoteStatusSent, model.QuoteStatusAccepted)

		statut := model.QuoteStatusRefused
		_, err := env.quotes.UpdateQuote(ctx, env.userID, quote.ID, UpdateQuoteRequest{Statut: &statut})
		require.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("unknown status is a validation error", func(t *testing.T) {
		quote := env.createQuote(t, testLine("a", "1", model.UnitUnite, "10", "20"))
		statut := "ANNULE"
		_, err := env.quotes.UpdateQuote(ctx, env.userID, quote.ID, UpdateQuoteRequest{Statut: &statut})
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestQuoteContentFrozenAfterTerminalStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	quote := env.createQuote(t, testLine("a", "1", model.UnitUnite, "10", "20"))
	env.setQuoteStatus(t, quote.ID, model.QuoteStatusSent, model.QuoteStatusRefused)

	_, err := env.quotes.UpdateQuote(ctx, env.userID, quote.ID, UpdateQuoteRequest{
		Lignes: []LineInput{testLine("b", "2", model.UnitUnite, "10", "20")},
	})
	require.ErrorIs(t, err, ErrInvalidState)

	notes := "relance client"
	_, err = env.quotes.UpdateQuote(ctx, env.userID, quote.ID, UpdateQuoteRequest{Notes: &notes})
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestQuoteCrossAccountAccessIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	other := env.otherUser(t)

	quote := env.createQuote(t, testLine("a", "1", model.UnitUnite, "10", "20"))

	_, err := env.quotes.GetQuote(ctx, other, quote.ID)
	require.ErrorIs(t, err, ErrNotFound)

	statut := model.QuoteStatusSent
	_, err = env.quotes.UpdateQuote(ctx, other, quote.ID, UpdateQuoteRequest{Statut: &statut})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = env.quotes.ConvertToInvoice(ctx, other, quote.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConvertToInvoiceCopiesDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	quote := env.createQuote(t,
		testLine("Demolition cloison", "1", model.UnitForfait, "1200", "20"),
		testLine("Evacuation gravats", "3", model.UnitHeure, "55", "20"),
	)
	env.setQuoteStatus(t, quote.ID, model.QuoteStatusSent, model.QuoteStatusAccepted)

	invoice, err := env.quotes.ConvertToInvoice(ctx, env.userID, quote.ID)
	require.NoError(t, err)

	require.Equal(t, "FAC-", invoice.Numero[:4])
	require.Equal(t, model.InvoiceStatusDraft, invoice.Statut)
	require.NotNil(t, invoice.DevisID)
	require.Equal(t, quote.ID, *invoice.DevisID)
	require.Equal(t, quote.MontantHT, invoice.MontantHT)
	require.Equal(t, quote.TVA, invoice.TVA)
	require.Equal(t, quote.MontantTTC, invoice.MontantTTC)
	require.Equal(t, "0.00", invoice.Acompte)
	require.NotNil(t, invoice.DateEcheance)

	require.Len(t, invoice.Lignes, len(quote.Lignes))
	for i := range quote.Lignes {
		require.Equal(t, quote.Lignes[i].Description, invoice.Lignes[i].Description)
		require.Equal(t, quote.Lignes[i].Quantite, invoice.Lignes[i].Quantite)
		require.Equal(t, quote.Lignes[i].Unite, invoice.Lignes[i].Unite)
		require.Equal(t, quote.Lignes[i].PrixUnitaire, invoice.Lignes[i].PrixUnitaire)
		require.Equal(t, quote.Lignes[i].TauxTVA, invoice.Lignes[i].TauxTVA)
		require.Equal(t, quote.Lignes[i].MontantHT, invoice.Lignes[i].MontantHT)
	}

	// The quote itself is untouched by the conversion.
	after, err := env.quotes.GetQuote(ctx, env.userID, quote.ID)
	require.NoError(t, err)
	require.Equal(t, model.QuoteStatusAccepted, after.Statut)
}

func TestConvertToInvoiceRequiresAcceptedStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("draft", func(t *testing.T) {
		quote := env.createQuote(t, testLine("a", "1", model.UnitUnite, "10", "20"))
		_, err := env.quotes.ConvertToInvoice(ctx, env.userID, quote.ID)
		require.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("sent", func(t *testing.T) {
		quote := env.createQuote(t, testLine("a", "1", model.UnitUnite, "10", "20"))
		env.setQuoteStatus(t, quote.ID, model.QuoteStatusSent)
		_, err := env.quotes.ConvertToInvoice(ctx, env.userID, quote.ID)
		require.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("refused", func(t *testing.T) {
		quote := env.createQuote(t, testLine("a", "1", model.UnitUnite, "10", "20"))
		env.setQuoteStatus(t, quote.ID, model.QuoteStatusSent, model.QuoteStatusRefused)
		_, err := env.quotes.ConvertToInvoice(ctx, env.userID, quote.ID)
		require.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("expired", func(t *testing.T) {
		quote := env.createQuote(t, testLine("a", "1", model.UnitUnite, "10", "20"))
		env.setQuoteStatus(t, quote.ID, model.QuoteStatusSent, model.QuoteStatusExpired)
		_, err := env.quotes.ConvertToInvoice(ctx, env.userID, quote.ID)
		require.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestListQuotesFiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createQuote(t, testLine("a", "1", model.UnitUnite, "10", "20"))
	sent := env.createQuote(t, testLine("b", "1", model.UnitUnite, "10", "20"))
	env.setQuoteStatus(t, sent.ID, model.QuoteStatusSent)

	all, total, err := env.quotes.ListQuotes(ctx, env.userID, QuoteFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, all, 2)

	sentOnly, total, err := env.quotes.ListQuotes(ctx, env.userID, QuoteFilter{Statut: model.QuoteStatusSent})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, sentOnly, 1)
	require.Equal(t, sent.ID, sentOnly[0].ID)
}
