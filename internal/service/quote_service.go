package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/money"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateQuoteRequest struct {
	ClientID     string      `json:"client_id" binding:"required"`
	DateValidite string      `json:"date_validite"` // RFC3339 or YYYY-MM-DD, optional
	Notes        string      `json:"notes"`
	Lignes       []LineInput `json:"lignes" binding:"required"`
}

// UpdateQuoteRequest carries a partial edit; nil fields are untouched.
// A non-nil Lignes always replaces the full line set.
type UpdateQuoteRequest struct {
	Lignes       []LineInput `json:"lignes"`
	Notes        *string     `json:"notes"`
	DateValidite *string     `json:"date_validite"`
	Statut       *string     `json:"statut"`
}

type QuoteFilter struct {
	Statut string
	Page   int
	Limit  int
}

type LineResponse struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	Quantite     string `json:"quantite"`
	Unite        string `json:"unite"`
	PrixUnitaire string `json:"prix_unitaire"`
	TauxTVA      string `json:"taux_tva"`
	MontantHT    string `json:"montant_ht"`
}

type QuoteResponse struct {
	ID           string          `json:"id"`
	Numero       string          `json:"numero"`
	ClientID     string          `json:"client_id"`
	Client       *ClientResponse `json:"client,omitempty"`
	Statut       string          `json:"statut"`
	MontantHT    string          `json:"montant_ht"`
	TVA          string          `json:"tva"`
	MontantTTC   string          `json:"montant_ttc"`
	DateValidite *string         `json:"date_validite"`
	Notes        string          `json:"notes"`
	Lignes       []LineResponse  `json:"lignes"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}

// --- Interface ---

type QuoteService interface {
	CreateQuote(ctx context.Context, userID string, req CreateQuoteRequest) (*QuoteResponse, error)
	GetQuote(ctx context.Context, userID, id string) (*QuoteResponse, error)
	ListQuotes(ctx context.Context, userID string, filter QuoteFilter) ([]QuoteResponse, int64, error)
	UpdateQuote(ctx context.Context, userID, id string, req UpdateQuoteRequest) (*QuoteResponse, error)
	ConvertToInvoice(ctx context.Context, userID, id string) (*InvoiceResponse, error)
}

type quoteService struct {
	quoteRepo    repository.QuoteRepository
	invoiceRepo  repository.InvoiceRepository
	clientRepo   repository.ClientRepository
	sequenceRepo repository.SequenceRepository
	activityRepo repository.ActivityRepository
	txManager    repository.TransactionManager
	events       EventPublisher
}

func NewQuoteService(
	quoteRepo repository.QuoteRepository,
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	sequenceRepo repository.SequenceRepository,
	activityRepo repository.ActivityRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
) QuoteService {
	return &quoteService{
		quoteRepo:    quoteRepo,
		invoiceRepo:  invoiceRepo,
		clientRepo:   clientRepo,
		sequenceRepo: sequenceRepo,
		activityRepo: activityRepo,
		txManager:    txManager,
		events:       events,
	}
}

// --- Implementation ---

func (s *quoteService) CreateQuote(ctx context.Context, userID string, req CreateQuoteRequest) (*QuoteResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: identifiant utilisateur invalide", ErrValidation)
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("%w: client_id invalide", ErrValidation)
	}
	if err := validateLines(req.Lignes); err != nil {
		return nil, err
	}
	dateValidite, err := parseOptionalDate(req.DateValidite, "date_validite")
	if err != nil {
		return nil, err
	}

	var quoteID uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.clientRepo.FindByID(txCtx, clientID, uid); err != nil {
			return clientLookupErr(err)
		}

		now := time.Now()
		numero, err := s.sequenceRepo.Next(txCtx, model.DocKindQuote, now.Year())
		if err != nil {
			return fmt.Errorf("allocation numero devis: %w", err)
		}

		totals := money.DocumentTotals(pricedLines(req.Lignes))
		quote := model.Quote{
			Numero:       numero,
			UserID:       uid,
			ClientID:     clientID,
			Statut:       model.QuoteStatusDraft,
			MontantHT:    totals.HT,
			TVA:          totals.TVA,
			MontantTTC:   totals.TTC,
			DateValidite: dateValidite,
			Notes:        req.Notes,
			Lignes:       buildQuoteLines(req.Lignes),
		}
		if err := s.quoteRepo.Create(txCtx, &quote); err != nil {
			return fmt.Errorf("creation devis: %w", err)
		}
		quoteID = quote.ID

		return s.logActivity(txCtx, uid, model.ActionCreateDevis, quote.ID.String(), numero, map[string]any{
			"montant_ttc": totals.TTC.StringFixed(2),
			"lignes":      len(req.Lignes),
		})
	})
	if err != nil {
		return nil, err
	}

	quote, err := s.quoteRepo.FindByID(ctx, quoteID, uid)
	if err != nil {
		return nil, fmt.Errorf("relecture devis: %w", err)
	}

	s.publish(Event{Type: EventDevisCree, UserID: userID, DocumentID: quote.ID.String(), Numero: quote.Numero, Statut: quote.Statut, At: time.Now()})
	resp := toQuoteResponse(quote)
	return &resp, nil
}

func (s *quoteService) GetQuote(ctx context.Context, userID, id string) (*QuoteResponse, error) {
	uid, qid, err := parseScopedID(userID, id)
	if err != nil {
		return nil, err
	}
	quote, err := s.quoteRepo.FindByID(ctx, qid, uid)
	if err != nil {
		return nil, documentLookupErr(err, "devis")
	}
	resp := toQuoteResponse(quote)
	return &resp, nil
}

func (s *quoteService) ListQuotes(ctx context.Context, userID string, filter QuoteFilter) ([]QuoteResponse, int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: identifiant utilisateur invalide", ErrValidation)
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	quotes, total, err := s.quoteRepo.List(ctx, uid, repository.QuoteListFilter{
		Statut: filter.Statut,
		Page:   filter.Page,
		Limit:  filter.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("liste devis: %w", err)
	}
	out := make([]QuoteResponse, 0, len(quotes))
	for i := range quotes {
		out = append(out, toQuoteResponse(&quotes[i]))
	}
	return out, total, nil
}

func (s *quoteService) UpdateQuote(ctx context.Context, userID, id string, req UpdateQuoteRequest) (*QuoteResponse, error) {
	uid, qid, err := parseScopedID(userID, id)
	if err != nil {
		return nil, err
	}
	if req.Lignes == nil && req.Notes == nil && req.DateValidite == nil && req.Statut == nil {
		return nil, fmt.Errorf("%w: aucun champ a modifier", ErrValidation)
	}
	if req.Lignes != nil {
		if err := validateLines(req.Lignes); err != nil {
			return nil, err
		}
	}
	if req.Statut != nil && !validQuoteStatus(*req.Statut) {
		return nil, fmt.Errorf("%w: statut devis inconnu %q", ErrValidation, *req.Statut)
	}

	var statusChanged bool
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.quoteRepo.FindByID(txCtx, qid, uid)
		if err != nil {
			return documentLookupErr(err, "devis")
		}

		// Content edits are frozen once the quote reaches a terminal status;
		// only the transition table governs status changes.
		contentEdit := req.Lignes != nil || req.Notes != nil || req.DateValidite != nil
		if contentEdit && !model.QuoteEditable(existing.Statut) {
			return fmt.Errorf("%w: devis %s non modifiable", ErrInvalidState, existing.Statut)
		}
		if req.Statut != nil && *req.Statut != existing.Statut {
			if !model.CanTransitionQuote(existing.Statut, *req.Statut) {
				return fmt.Errorf("%w: transition %s -> %s interdite", ErrInvalidState, existing.Statut, *req.Statut)
			}
			statusChanged = true
		}

		updates := map[string]interface{}{}
		if req.Notes != nil {
			updates["notes"] = *req.Notes
		}
		if req.DateValidite != nil {
			d, err := parseOptionalDate(*req.DateValidite, "date_validite")
			if err != nil {
				return err
			}
			updates["date_validite"] = d
		}
		if statusChanged {
			updates["statut"] = *req.Statut
		}
		if req.Lignes != nil {
			// Full line-set replacement: new lines and the recomputed
			// aggregates land in the same transaction.
			totals := money.DocumentTotals(pricedLines(req.Lignes))
			if err := s.quoteRepo.ReplaceLines(txCtx, qid, buildQuoteLines(req.Lignes)); err != nil {
				return fmt.Errorf("remplacement lignes devis: %w", err)
			}
			updates["montant_ht"] = totals.HT
			updates["tva"] = totals.TVA
			updates["montant_ttc"] = totals.TTC
		}

		rows, err := s.quoteRepo.UpdateVersioned(txCtx, qid, existing.Version, updates)
		if err != nil {
			return fmt.Errorf("mise a jour devis: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: devis %s", ErrConflict, existing.Numero)
		}

		return s.logActivity(txCtx, uid, model.ActionUpdateDevis, qid.String(), existing.Numero, map[string]any{
			"statut": existing.Statut,
			"lignes": req.Lignes != nil,
		})
	})
	if err != nil {
		return nil, err
	}

	quote, err := s.quoteRepo.FindByID(ctx, qid, uid)
	if err != nil {
		return nil, fmt.Errorf("relecture devis: %w", err)
	}
	if statusChanged {
		s.publish(Event{Type: EventDevisStatut, UserID: userID, DocumentID: quote.ID.String(), Numero: quote.Numero, Statut: quote.Statut, At: time.Now()})
	}
	resp := toQuoteResponse(quote)
	return &resp, nil
}

// ConvertToInvoice turns an accepted quote into a new draft invoice: number
// allocated from the invoice sequence, aggregates copied as-is, every line
// duplicated verbatim, due date defaulted to thirty days out. The invoice
// and its lines are created in one transaction so a partial copy cannot
// survive a failure.
func (s *quoteService) ConvertToInvoice(ctx context.Context, userID, id string) (*InvoiceResponse, error) {
	uid, qid, err := parseScopedID(userID, id)
	if err != nil {
		return nil, err
	}

	var invoiceID uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		quote, err := s.quoteRepo.FindByID(txCtx, qid, uid)
		if err != nil {
			return documentLookupErr(err, "devis")
		}
		if quote.Statut != model.QuoteStatusAccepted {
			return fmt.Errorf("%w: seuls les devis acceptes peuvent etre convertis en facture", ErrInvalidState)
		}

		now := time.Now()
		numero, err := s.sequenceRepo.Next(txCtx, model.DocKindInvoice, now.Year())
		if err != nil {
			return fmt.Errorf("allocation numero facture: %w", err)
		}

		echeance := now.AddDate(0, 0, 30)
		devisID := quote.ID
		invoice := model.Invoice{
			Numero:       numero,
			UserID:       uid,
			ClientID:     quote.ClientID,
			DevisID:      &devisID,
			Statut:       model.InvoiceStatusDraft,
			MontantHT:    quote.MontantHT,
			TVA:          quote.TVA,
			MontantTTC:   quote.MontantTTC,
			DateEcheance: &echeance,
			Acompte:      decimal.Zero,
			Lignes:       copyQuoteLines(quote.Lignes),
		}
		if err := s.invoiceRepo.Create(txCtx, &invoice); err != nil {
			return fmt.Errorf("creation facture depuis devis %s: %w", quote.Numero, err)
		}
		invoiceID = invoice.ID

		return s.logActivity(txCtx, uid, model.ActionConvertDevis, invoice.ID.String(), numero, map[string]any{
			"devis":  quote.Numero,
			"lignes": len(quote.Lignes),
		})
	})
	if err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID, uid)
	if err != nil {
		return nil, fmt.Errorf("relecture facture: %w", err)
	}
	s.publish(Event{Type: EventDevisConverti, UserID: userID, DocumentID: invoice.ID.String(), Numero: invoice.Numero, Statut: invoice.Statut, At: time.Now()})
	resp := toInvoiceResponse(invoice, time.Now())
	return &resp, nil
}

// --- Helpers ---

func (s *quoteService) publish(e Event) {
	if s.events != nil {
		s.events.Publish(e)
	}
}

func (s *quoteService) logActivity(ctx context.Context, userID uuid.UUID, action, entityID, entityName string, details map[string]any) error {
	payload, _ := json.Marshal(details)
	return s.activityRepo.Create(ctx, &model.ActivityLog{
		UserID:     userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	})
}

func validQuoteStatus(s string) bool {
	switch s {
	case model.QuoteStatusDraft, model.QuoteStatusSent, model.QuoteStatusAccepted,
		model.QuoteStatusRefused, model.QuoteStatusExpired:
		return true
	}
	return false
}

func buildQuoteLines(inputs []LineInput) []model.QuoteLine {
	lines := make([]model.QuoteLine, 0, len(inputs))
	for _, l := range inputs {
		lines = append(lines, model.QuoteLine{
			Description:  l.Description,
			Quantite:     l.Quantite,
			Unite:        l.Unite,
			PrixUnitaire: l.PrixUnitaire,
			TauxTVA:      l.TauxTVA,
			MontantHT:    money.LineAmount(l.Quantite, l.PrixUnitaire),
		})
	}
	return lines
}

// copyQuoteLines duplicates quote lines into invoice lines without
// recomputation: the stored amounts are already consistent.
func copyQuoteLines(lines []model.QuoteLine) []model.InvoiceLine {
	out := make([]model.InvoiceLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, model.InvoiceLine{
			Description:  l.Description,
			Quantite:     l.Quantite,
			Unite:        l.Unite,
			PrixUnitaire: l.PrixUnitaire,
			TauxTVA:      l.TauxTVA,
			MontantHT:    l.MontantHT,
		})
	}
	return out
}

func parseScopedID(userID, id string) (uuid.UUID, uuid.UUID, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: identifiant utilisateur invalide", ErrValidation)
	}
	docID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: identifiant invalide", ErrValidation)
	}
	return uid, docID, nil
}

// parseOptionalDate accepts RFC3339 or a bare date; empty means unset.
func parseOptionalDate(s, field string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("%w: %s invalide %q", ErrValidation, field, s)
}

func clientLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: client", ErrNotFound)
	}
	return fmt.Errorf("recherche client: %w", err)
}

func documentLookupErr(err error, doc string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, doc)
	}
	return fmt.Errorf("recherche %s: %w", doc, err)
}

// --- Mapping ---

func toQuoteResponse(q *model.Quote) QuoteResponse {
	resp := QuoteResponse{
		ID:         q.ID.String(),
		Numero:     q.Numero,
		ClientID:   q.ClientID.String(),
		Statut:     q.Statut,
		MontantHT:  q.MontantHT.StringFixed(2),
		TVA:        q.TVA.StringFixed(2),
		MontantTTC: q.MontantTTC.StringFixed(2),
		Notes:      q.Notes,
		Lignes:     toQuoteLineResponses(q.Lignes),
		CreatedAt:  q.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  q.UpdatedAt.Format(time.RFC3339),
	}
	if q.DateValidite != nil {
		d := q.DateValidite.Format(time.RFC3339)
		resp.DateValidite = &d
	}
	if q.Client != nil {
		c := toClientResponse(q.Client)
		resp.Client = &c
	}
	return resp
}

func toQuoteLineResponses(lines []model.QuoteLine) []LineResponse {
	out := make([]LineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineResponse{
			ID:           l.ID.String(),
			Description:  l.Description,
			Quantite:     l.Quantite.String(),
			Unite:        l.Unite,
			PrixUnitaire: l.PrixUnitaire.StringFixed(2),
			TauxTVA:      l.TauxTVA.String(),
			MontantHT:    l.MontantHT.StringFixed(2),
		})
	}
	return out
}
