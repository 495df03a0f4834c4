package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

// MonthPoint is one month of revenue (sum of TTC over paid invoices).
type MonthPoint struct {
	Date    string `json:"date"`  // YYYY-MM
	Montant string `json:"montant"`
}

// MonthCount pairs quote and invoice creation counts for one month.
type MonthCount struct {
	Date     string `json:"date"`
	Devis    int    `json:"devis"`
	Factures int    `json:"factures"`
}

// StatusCount is one slice of the client pipeline repartition.
type StatusCount struct {
	Statut string `json:"statut"`
	Count  int64  `json:"count"`
}

// ConversionPoint is the monthly quote conversion rate: accepted quotes over
// quotes that were at least sent, as a percentage rounded to one decimal.
type ConversionPoint struct {
	Date string `json:"date"`
	Taux string `json:"taux"`
}

type DashboardStats struct {
	CAEvolution        []MonthPoint      `json:"ca_evolution"`
	DevisVsFactures    []MonthCount      `json:"devis_vs_factures"`
	RepartitionStatuts []StatusCount     `json:"repartition_statuts"`
	TauxConversion     []ConversionPoint `json:"taux_conversion"`
}

// --- Interface ---

type DashboardService interface {
	GetStats(ctx context.Context, userID string, periodDays int) (*DashboardStats, error)
}

type dashboardService struct {
	quoteRepo   repository.QuoteRepository
	invoiceRepo repository.InvoiceRepository
	clientRepo  repository.ClientRepository
}

func NewDashboardService(
	quoteRepo repository.QuoteRepository,
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
) DashboardService {
	return &dashboardService{quoteRepo: quoteRepo, invoiceRepo: invoiceRepo, clientRepo: clientRepo}
}

// --- Implementation ---

func (s *dashboardService) GetStats(ctx context.Context, userID string, periodDays int) (*DashboardStats, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: identifiant utilisateur invalide", ErrValidation)
	}
	if periodDays <= 0 {
		periodDays = 180
	}

	now := time.Now()
	since := now.AddDate(0, 0, -periodDays)
	months := monthKeys(since, now)

	quotes, err := s.quoteRepo.ListCreatedSince(ctx, uid, since)
	if err != nil {
		return nil, fmt.Errorf("stats devis: %w", err)
	}
	invoices, err := s.invoiceRepo.ListCreatedSince(ctx, uid, since)
	if err != nil {
		return nil, fmt.Errorf("stats factures: %w", err)
	}
	pipeline, err := s.clientRepo.CountByPipelineStatus(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("stats pipeline: %w", err)
	}

	stats := &DashboardStats{
		CAEvolution:        make([]MonthPoint, 0, len(months)),
		DevisVsFactures:    make([]MonthCount, 0, len(months)),
		TauxConversion:     make([]ConversionPoint, 0, len(months)),
		RepartitionStatuts: make([]StatusCount, 0, len(pipeline)),
	}

	// Buckets key on each document's creation month but read its current
	// status, so a quote accepted today counts toward the rate of the month
	// it was created in. That is how the product has always reported; a
	// status-change timestamp would be needed to bucket on acceptance date.
	for _, m := range months {
		ca := decimal.Zero
		factures := 0
		for _, inv := range invoices {
			if inv.CreatedAt.Format("2006-01") != m {
				continue
			}
			factures++
			if inv.Statut == model.InvoiceStatusPaid {
				ca = ca.Add(inv.MontantTTC)
			}
		}

		devis := 0
		envoyes := 0
		acceptes := 0
		for _, q := range quotes {
			if q.CreatedAt.Format("2006-01") != m {
				continue
			}
			devis++
			// Anything beyond draft counts as sent for the conversion rate.
			if q.Statut != model.QuoteStatusDraft {
				envoyes++
			}
			if q.Statut == model.QuoteStatusAccepted {
				acceptes++
			}
		}

		taux := decimal.Zero
		if envoyes > 0 {
			taux = decimal.NewFromInt(int64(acceptes)).
				Div(decimal.NewFromInt(int64(envoyes))).
				Mul(decimal.NewFromInt(100)).
				Round(1)
		}

		stats.CAEvolution = append(stats.CAEvolution, MonthPoint{Date: m, Montant: ca.StringFixed(2)})
		stats.DevisVsFactures = append(stats.DevisVsFactures, MonthCount{Date: m, Devis: devis, Factures: factures})
		stats.TauxConversion = append(stats.TauxConversion, ConversionPoint{Date: m, Taux: taux.StringFixed(1)})
	}

	for _, statut := range model.PipelineStatuses {
		if count, ok := pipeline[statut]; ok {
			stats.RepartitionStatuts = append(stats.RepartitionStatuts, StatusCount{Statut: statut, Count: count})
		}
	}

	return stats, nil
}

// monthKeys lists the YYYY-MM keys from the first day of since's month
// through now's month, inclusive.
func monthKeys(since, now time.Time) []string {
	var keys []string
	cur := time.Date(since.Year(), since.Month(), 1, 0, 0, 0, 0, since.Location())
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for !cur.After(end) {
		keys = append(keys, cur.Format("2006-01"))
		cur = cur.AddDate(0, 1, 0)
	}
	return keys
}
