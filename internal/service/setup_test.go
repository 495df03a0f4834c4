package service

import (
	"context"
	"fmt"
	"testing"

	"backend/internal/database"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv wires the full service stack onto an in-memory database, with one
// account and one client already seeded.
type testEnv struct {
	db       *gorm.DB
	quotes   QuoteService
	invoices InvoiceService
	clients  ClientService
	userID   string
	clientID string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	user := model.User{Nom: "Martin Dupont", Email: "martin@exemple.fr", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	client := model.Client{
		UserID:         user.ID,
		Nom:            "Durand",
		Prenom:         "Sophie",
		Email:          "sophie.durand@exemple.fr",
		StatutPipeline: model.PipelineProspect,
	}
	require.NoError(t, db.Create(&client).Error)

	txManager := repository.NewTransactionManager(db)
	clientRepo := repository.NewClientRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	return &testEnv{
		db:       db,
		quotes:   NewQuoteService(quoteRepo, invoiceRepo, clientRepo, sequenceRepo, activityRepo, txManager, nil),
		invoices: NewInvoiceService(invoiceRepo, quoteRepo, clientRepo, sequenceRepo, activityRepo, txManager, nil),
		clients:  NewClientService(clientRepo, activityRepo),
		userID:   user.ID.String(),
		clientID: client.ID.String(),
	}
}

// otherUser seeds a second account and returns its id, for scoping tests.
func (e *testEnv) otherUser(t *testing.T) string {
	t.Helper()
	user := model.User{Nom: "Autre Artisan", Email: "autre@exemple.fr", Password: "x"}
	require.NoError(t, e.db.Create(&user).Error)
	return user.ID.String()
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testLine(desc, qty, unit, price, rate string) LineInput {
	return LineInput{
		Description:  desc,
		Quantite:     dec(qty),
		Unite:        unit,
		PrixUnitaire: dec(price),
		TauxTVA:      dec(rate),
	}
}

func (e *testEnv) createQuote(t *testing.T, lines ...LineInput) *QuoteResponse {
	t.Helper()
	quote, err := e.quotes.CreateQuote(context.Background(), e.userID, CreateQuoteRequest{
		ClientID: e.clientID,
		Lignes:   lines,
	})
	require.NoError(t, err)
	return quote
}

func (e *testEnv) setQuoteStatus(t *testing.T, id string, path ...string) {
	t.Helper()
	for i := range path {
		statut := path[i]
		_, err := e.quotes.UpdateQuote(context.Background(), e.userID, id, UpdateQuoteRequest{Statut: &statut})
		require.NoError(t, err)
	}
}
