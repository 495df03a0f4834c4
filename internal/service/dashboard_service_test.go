package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/stretchr/testify/require"
)

func newDashboardForTest(env *testEnv) DashboardService {
	return NewDashboardService(
		repository.NewQuoteRepository(env.db),
		repository.NewInvoiceRepository(env.db),
		repository.NewClientRepository(env.db),
	)
}

func TestDashboardStatsCurrentMonth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dashboard := newDashboardForTest(env)

	// One accepted quote out of two sent, one paid invoice.
	accepted := env.createQuote(t, testLine("a", "1", model.UnitUnite, "100", "20"))
	env.setQuoteStatus(t, accepted.ID, model.QuoteStatusSent, model.QuoteStatusAccepted)
	refused := env.createQuote(t, testLine("b", "1", model.UnitUnite, "100", "20"))
	env.setQuoteStatus(t, refused.ID, model.QuoteStatusSent, model.QuoteStatusRefused)
	env.createQuote(t, testLine("c", "1", model.UnitUnite, "100", "20")) // stays draft

	paid := env.createInvoice(t, CreateInvoiceRequest{
		Lignes: []LineInput{testLine("x", "1", model.UnitForfait, "1000", "20")},
	})
	env.setInvoiceStatus(t, paid.ID, model.InvoiceStatusSent, model.InvoiceStatusPaid)
	env.createInvoice(t, CreateInvoiceRequest{
		Lignes: []LineInput{testLine("y", "1", model.UnitForfait, "500", "20")},
	}) // stays draft, contributes no revenue

	stats, err := dashboard.GetStats(ctx, env.userID, 30)
	require.NoError(t, err)

	thisMonth := time.Now().Format("2006-01")
	last := stats.CAEvolution[len(stats.CAEvolution)-1]
	require.Equal(t, thisMonth, last.Date)
	require.Equal(t, "1200.00", last.Montant)

	counts := stats.DevisVsFactures[len(stats.DevisVsFactures)-1]
	require.Equal(t, 3, counts.Devis)
	require.Equal(t, 2, counts.Factures)

	taux := stats.TauxConversion[len(stats.TauxConversion)-1]
	require.Equal(t, "50.0", taux.Taux)

	// The seeded client is the only one, still a prospect.
	require.Len(t, stats.RepartitionStatuts, 1)
	require.Equal(t, model.PipelineProspect, stats.RepartitionStatuts[0].Statut)
	require.EqualValues(t, 1, stats.RepartitionStatuts[0].Count)
}

func TestDashboardStatsDefaultPeriod(t *testing.T) {
	env := newTestEnv(t)
	dashboard := newDashboardForTest(env)

	stats, err := dashboard.GetStats(context.Background(), env.userID, 0)
	require.NoError(t, err)
	// 180 days back always spans at least six monthly buckets.
	require.GreaterOrEqual(t, len(stats.CAEvolution), 6)
	require.Len(t, stats.DevisVsFactures, len(stats.CAEvolution))
	require.Len(t, stats.TauxConversion, len(stats.CAEvolution))
}

func TestMonthKeys(t *testing.T) {
	since := time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	require.Equal(t, []string{"2025-11", "2025-12", "2026-01", "2026-02"}, monthKeys(since, now))
}
