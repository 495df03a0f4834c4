package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatutFacture enum constants. EN_RETARD is never stored: it is a read-time
// projection of an ENVOYEE invoice whose due date has passed.
const (
	InvoiceStatusDraft   = "BROUILLON"
	InvoiceStatusSent    = "ENVOYEE"
	InvoiceStatusPaid    = "PAYEE"
	InvoiceStatusOverdue = "EN_RETARD"
)

// invoiceTransitions is the allowed status transition table.
var invoiceTransitions = map[string][]string{
	InvoiceStatusDraft: {InvoiceStatusSent},
	InvoiceStatusSent:  {InvoiceStatusPaid},
}

// CanTransitionInvoice reports whether an invoice may move from one status
// to another. EN_RETARD is not a storable target.
func CanTransitionInvoice(from, to string) bool {
	for _, next := range invoiceTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Invoice (facture) is a billing document, optionally derived from an
// accepted quote. Aggregates follow the same stored-consistency rule as quotes.
type Invoice struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Numero       string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"numero"`
	UserID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	ClientID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"client_id"`
	Client       *Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	DevisID      *uuid.UUID      `gorm:"type:uuid;index" json:"devis_id"` // originating quote; set once at creation, immutable
	Devis        *Quote          `gorm:"foreignKey:DevisID" json:"devis,omitempty"`
	Lignes       []InvoiceLine   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"lignes"`
	Statut       string          `gorm:"type:varchar(20);not null;default:'BROUILLON';index" json:"statut"`
	MontantHT    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"montant_ht"`
	TVA          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"tva"`
	MontantTTC   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"montant_ttc"`
	DateEcheance *time.Time      `json:"date_echeance"`
	Acompte      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"acompte"`
	Version      int             `gorm:"not null;default:0" json:"-"` // optimistic concurrency stamp
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (i *Invoice) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Overdue reports whether the invoice should be displayed as EN_RETARD at
// the given instant.
func (i *Invoice) Overdue(now time.Time) bool {
	return i.Statut == InvoiceStatusSent && i.DateEcheance != nil && i.DateEcheance.Before(now)
}

// InvoiceLine is one priced row of an invoice.
type InvoiceLine struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Description  string          `gorm:"type:text;not null" json:"description"`
	Quantite     decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"quantite"`
	Unite        string          `gorm:"type:varchar(10);not null" json:"unite"`
	PrixUnitaire decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"prix_unitaire"`
	TauxTVA      decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"taux_tva"`
	MontantHT    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"montant_ht"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (l *InvoiceLine) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
