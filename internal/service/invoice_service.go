package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/money"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateInvoiceRequest struct {
	ClientID     string           `json:"client_id" binding:"required"`
	DevisID      string           `json:"devis_id"`      // originating quote, optional, immutable once set
	DateEcheance string           `json:"date_echeance"` // RFC3339 or YYYY-MM-DD, optional
	Acompte      *decimal.Decimal `json:"acompte"`       // deposit, defaults to zero
	Lignes       []LineInput      `json:"lignes" binding:"required"`
}

// UpdateInvoiceRequest carries a partial edit; nil fields are untouched.
// Everything except Statut requires the invoice to still be a draft.
type UpdateInvoiceRequest struct {
	Lignes       []LineInput      `json:"lignes"`
	DateEcheance *string          `json:"date_echeance"`
	Acompte      *decimal.Decimal `json:"acompte"`
	Statut       *string          `json:"statut"`
}

type InvoiceFilter struct {
	Statut   string
	EnRetard bool // keep only invoices displayed as overdue
	Page     int
	Limit    int
}

type InvoiceResponse struct {
	ID           string          `json:"id"`
	Numero       string          `json:"numero"`
	ClientID     string          `json:"client_id"`
	Client       *ClientResponse `json:"client,omitempty"`
	DevisID      *string         `json:"devis_id"`
	Statut       string          `json:"statut"`
	EnRetard     bool            `json:"en_retard"` // read-time projection, never stored
	MontantHT    string          `json:"montant_ht"`
	TVA          string          `json:"tva"`
	MontantTTC   string          `json:"montant_ttc"`
	DateEcheance *string         `json:"date_echeance"`
	Acompte      string          `json:"acompte"`
	Lignes       []LineResponse  `json:"lignes"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}

// --- Interface ---

type InvoiceService interface {
	CreateInvoice(ctx context.Context, userID string, req CreateInvoiceRequest) (*InvoiceResponse, error)
	GetInvoice(ctx context.Context, userID, id string) (*InvoiceResponse, error)
	ListInvoices(ctx context.Context, userID string, filter InvoiceFilter) ([]InvoiceResponse, int64, error)
	UpdateInvoice(ctx context.Context, userID, id string, req UpdateInvoiceRequest) (*InvoiceResponse, error)
}

type invoiceService struct {
	invoiceRepo  repository.InvoiceRepository
	quoteRepo    repository.QuoteRepository
	clientRepo   repository.ClientRepository
	sequenceRepo repository.SequenceRepository
	activityRepo repository.ActivityRepository
	txManager    repository.TransactionManager
	events       EventPublisher
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	quoteRepo repository.QuoteRepository,
	clientRepo repository.ClientRepository,
	sequenceRepo repository.SequenceRepository,
	activityRepo repository.ActivityRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
) InvoiceService {
	return &invoiceService{
		invoiceRepo:  invoiceRepo,
		quoteRepo:    quoteRepo,
		clientRepo:   clientRepo,
		sequenceRepo: sequenceRepo,
		activityRepo: activityRepo,
		txManager:    txManager,
		events:       events,
	}
}

// --- Implementation ---

func (s *invoiceService) CreateInvoice(ctx context.Context, userID string, req CreateInvoiceRequest) (*InvoiceResponse, error) {
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
	var devisID *uuid.UUID
	if req.DevisID != "" {
		parsed, err := uuid.Parse(req.DevisID)
		if err != nil {
			return nil, fmt.Errorf("%w: devis_id invalide", ErrValidation)
		}
		devisID = &parsed
	}
	echeance, err := parseOptionalDate(req.DateEcheance, "date_echeance")
	if err != nil {
		return nil, err
	}
	acompte := decimal.Zero
	if req.Acompte != nil {
		if req.Acompte.IsNegative() {
			return nil, fmt.Errorf("%w: acompte negatif", ErrValidation)
		}
		acompte = *req.Acompte
	}

	var invoiceID uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.clientRepo.FindByID(txCtx, clientID, uid); err != nil {
			return clientLookupErr(err)
		}
		// The back-reference must point at the caller's own quote.
		if devisID != nil {
			if _, err := s.quoteRepo.FindByID(txCtx, *devisID, uid); err != nil {
				return documentLookupErr(err, "devis")
			}
		}

		now := time.Now()
		numero, err := s.sequenceRepo.Next(txCtx, model.DocKindInvoice, now.Year())
		if err != nil {
			return fmt.Errorf("allocation numero facture: %w", err)
		}

		totals := money.DocumentTotals(pricedLines(req.Lignes))
		invoice := model.Invoice{
			Numero:       numero,
			UserID:       uid,
			ClientID:     clientID,
			DevisID:      devisID,
			Statut:       model.InvoiceStatusDraft,
			MontantHT:    totals.HT,
			TVA:          totals.TVA,
			MontantTTC:   totals.TTC,
			DateEcheance: echeance,
			Acompte:      acompte,
			Lignes:       buildInvoiceLines(req.Lignes),
		}
		if err := s.invoiceRepo.Create(txCtx, &invoice); err != nil {
			return fmt.Errorf("creation facture: %w", err)
		}
		invoiceID = invoice.ID

		return s.logActivity(txCtx, uid, model.ActionCreateFacture, invoice.ID.String(), numero, map[string]any{
			"montant_ttc": totals.TTC.StringFixed(2),
			"lignes":      len(req.Lignes),
		})
	})
	if err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID, uid)
	if err != nil {
		return nil, fmt.Errorf("relecture facture: %w", err)
	}
	s.publish(Event{Type: EventFactureCree, UserID: userID, DocumentID: invoice.ID.String(), Numero: invoice.Numero, Statut: invoice.Statut, At: time.Now()})
	resp := toInvoiceResponse(invoice, time.Now())
	return &resp, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, userID, id string) (*InvoiceResponse, error) {
	uid, fid, err := parseScopedID(userID, id)
	if err != nil {
		return nil, err
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, fid, uid)
	if err != nil {
		return nil, documentLookupErr(err, "facture")
	}
	resp := toInvoiceResponse(invoice, time.Now())
	return &resp, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, userID string, filter InvoiceFilter) ([]InvoiceResponse, int64, error) {
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
	// The overdue filter runs in the query itself so the total and the
	// page contents agree.
	now := time.Now()
	invoices, total, err := s.invoiceRepo.List(ctx, uid, repository.InvoiceListFilter{
		Statut:   filter.Statut,
		EnRetard: filter.EnRetard,
		Now:      now,
		Page:     filter.Page,
		Limit:    filter.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("liste factures: %w", err)
	}

	out := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		out = append(out, toInvoiceResponse(&invoices[i], now))
	}
	return out, total, nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, userID, id string, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	uid, fid, err := parseScopedID(userID, id)
	if err != nil {
		return nil, err
	}
	if req.Lignes == nil && req.DateEcheance == nil && req.Acompte == nil && req.Statut == nil {
		return nil, fmt.Errorf("%w: aucun champ a modifier", ErrValidation)
	}
	if req.Lignes != nil {
		if err := validateLines(req.Lignes); err != nil {
			return nil, err
		}
	}
	if req.Acompte != nil && req.Acompte.IsNegative() {
		return nil, fmt.Errorf("%w: acompte negatif", ErrValidation)
	}
	if req.Statut != nil && !validInvoiceStatus(*req.Statut) {
		return nil, fmt.Errorf("%w: statut facture inconnu %q", ErrValidation, *req.Statut)
	}

	var statusChanged bool
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.invoiceRepo.FindByID(txCtx, fid, uid)
		if err != nil {
			return documentLookupErr(err, "facture")
		}

		// Lines, due date and deposit are only editable on drafts. This
		// holds whatever other fields the request carries.
		contentEdit := req.Lignes != nil || req.DateEcheance != nil || req.Acompte != nil
		if contentEdit && existing.Statut != model.InvoiceStatusDraft {
			return fmt.Errorf("%w: seules les factures en brouillon sont modifiables", ErrInvalidState)
		}
		if req.Statut != nil && *req.Statut != existing.Statut {
			if !model.CanTransitionInvoice(existing.Statut, *req.Statut) {
				return fmt.Errorf("%w: transition %s -> %s interdite", ErrInvalidState, existing.Statut, *req.Statut)
			}
			statusChanged = true
		}

		updates := map[string]interface{}{}
		if req.DateEcheance != nil {
			d, err := parseOptionalDate(*req.DateEcheance, "date_echeance")
			if err != nil {
				return err
			}
			updates["date_echeance"] = d
		}
		if req.Acompte != nil {
			updates["acompte"] = *req.Acompte
		}
		if statusChanged {
			updates["statut"] = *req.Statut
		}
		if req.Lignes != nil {
			totals := money.DocumentTotals(pricedLines(req.Lignes))
			if err := s.invoiceRepo.ReplaceLines(txCtx, fid, buildInvoiceLines(req.Lignes)); err != nil {
				return fmt.Errorf("remplacement lignes facture: %w", err)
			}
			updates["montant_ht"] = totals.HT
			updates["tva"] = totals.TVA
			updates["montant_ttc"] = totals.TTC
		}

		rows, err := s.invoiceRepo.UpdateVersioned(txCtx, fid, existing.Version, updates)
		if err != nil {
			return fmt.Errorf("mise a jour facture: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: facture %s", ErrConflict, existing.Numero)
		}

		return s.logActivity(txCtx, uid, model.ActionUpdateFacture, fid.String(), existing.Numero, map[string]any{
			"statut": existing.Statut,
			"lignes": req.Lignes != nil,
		})
	})
	if err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, fid, uid)
	if err != nil {
		return nil, fmt.Errorf("relecture facture: %w", err)
	}
	if statusChanged {
		s.publish(Event{Type: EventFactureStatut, UserID: userID, DocumentID: invoice.ID.String(), Numero: invoice.Numero, Statut: invoice.Statut, At: time.Now()})
	}
	resp := toInvoiceResponse(invoice, time.Now())
	return &resp, nil
}

// --- Helpers ---

func (s *invoiceService) publish(e Event) {
	if s.events != nil {
		s.events.Publish(e)
	}
}

func (s *invoiceService) logActivity(ctx context.Context, userID uuid.UUID, action, entityID, entityName string, details map[string]any) error {
	payload, _ := json.Marshal(details)
	return s.activityRepo.Create(ctx, &model.ActivityLog{
		UserID:     userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	})
}

func validInvoiceStatus(s string) bool {
	switch s {
	case model.InvoiceStatusDraft, model.InvoiceStatusSent, model.InvoiceStatusPaid, model.InvoiceStatusOverdue:
		return true
	}
	return false
}

func buildInvoiceLines(inputs []LineInput) []model.InvoiceLine {
	lines := make([]model.InvoiceLine, 0, len(inputs))
	for _, l := range inputs {
		lines = append(lines, model.InvoiceLine{
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

// --- Mapping ---

func toInvoiceResponse(inv *model.Invoice, now time.Time) InvoiceResponse {
	resp := InvoiceResponse{
		ID:         inv.ID.String(),
		Numero:     inv.Numero,
		ClientID:   inv.ClientID.String(),
		Statut:     inv.Statut,
		EnRetard:   inv.Overdue(now),
		MontantHT:  inv.MontantHT.StringFixed(2),
		TVA:        inv.TVA.StringFixed(2),
		MontantTTC: inv.MontantTTC.StringFixed(2),
		Acompte:    inv.Acompte.StringFixed(2),
		Lignes:     toInvoiceLineResponses(inv.Lignes),
		CreatedAt:  inv.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  inv.UpdatedAt.Format(time.RFC3339),
	}
	if inv.DevisID != nil {
		d := inv.DevisID.String()
		resp.DevisID = &d
	}
	if inv.DateEcheance != nil {
		d := inv.DateEcheance.Format(time.RFC3339)
		resp.DateEcheance = &d
	}
	if inv.Client != nil {
		c := toClientResponse(inv.Client)
		resp.Client = &c
	}
	return resp
}

func toInvoiceLineResponses(lines []model.InvoiceLine) []LineResponse {
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
