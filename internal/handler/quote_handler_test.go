package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"backend/internal/database"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRouter(t *testing.T) (http.Handler, string, string) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	user := model.User{Nom: "Test", Email: "test@exemple.fr", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	client := model.Client{UserID: user.ID, Nom: "Client", Prenom: "Un", StatutPipeline: model.PipelineProspect}
	require.NoError(t, db.Create(&client).Error)

	txManager := repository.NewTransactionManager(db)
	quoteService := service.NewQuoteService(
		repository.NewQuoteRepository(db),
		repository.NewInvoiceRepository(db),
		repository.NewClientRepository(db),
		repository.NewSequenceRepository(db),
		repository.NewActivityRepository(db),
		txManager,
		nil,
	)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewQuoteHandler(quoteService).RegisterRoutes(router.Group(""))

	return router, bearerToken(t, user.ID.String()), client.ID.String()
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(middleware.GetJWTSecret())
	require.NoError(t, err)
	return "Bearer " + token
}

func TestCreateQuoteEndpoint(t *testing.T) {
	router, token, clientID := newTestRouter(t)

	body := fmt.Sprintf(`{
		"client_id": %q,
		"lignes": [{"description": "Pose carrelage", "quantite": "15", "unite": "M2", "prix_unitaire": "45", "taux_tva": "10"}]
	}`, clientID)

	req := httptest.NewRequest(http.MethodPost, "/api/devis", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Status string                `json:"status"`
		Data   service.QuoteResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "success", envelope.Status)
	require.Equal(t, "742.50", envelope.Data.MontantTTC)
	require.Equal(t, model.QuoteStatusDraft, envelope.Data.Statut)
}

func TestCreateQuoteEndpointRequiresAuth(t *testing.T) {
	router, _, clientID := newTestRouter(t)

	body := fmt.Sprintf(`{"client_id": %q, "lignes": []}`, clientID)
	req := httptest.NewRequest(http.MethodPost, "/api/devis", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateQuoteEndpointValidationMapsTo400(t *testing.T) {
	router, token, clientID := newTestRouter(t)

	// Unknown TVA rate is rejected by the engine, not by binding.
	body := fmt.Sprintf(`{
		"client_id": %q,
		"lignes": [{"description": "x", "quantite": "1", "unite": "UNITE", "prix_unitaire": "10", "taux_tva": "19.6"}]
	}`, clientID)

	req := httptest.NewRequest(http.MethodPost, "/api/devis", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConvertEndpointInvalidStateMapsTo409(t *testing.T) {
	router, token, clientID := newTestRouter(t)

	body := fmt.Sprintf(`{
		"client_id": %q,
		"lignes": [{"description": "x", "quantite": "1", "unite": "UNITE", "prix_unitaire": "10", "taux_tva": "20"}]
	}`, clientID)
	req := httptest.NewRequest(http.MethodPost, "/api/devis", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Data service.QuoteResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	// Converting a draft must be refused.
	req = httptest.NewRequest(http.MethodPost, "/api/devis/"+envelope.Data.ID+"/convertir-facture", nil)
	req.Header.Set("Authorization", token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)
}
