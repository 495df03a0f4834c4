package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatutDevis enum constants
const (
	QuoteStatusDraft    = "BROUILLON"
	QuoteStatusSent     = "ENVOYE"
	QuoteStatusAccepted = "ACCEPTE"
	QuoteStatusRefused  = "REFUSE"
	QuoteStatusExpired  = "EXPIRE"
)

// UniteMesure enum constants
const (
	UnitM2      = "M2"      // square meter
	UnitML      = "ML"      // linear meter
	UnitForfait = "FORFAIT" // lump sum
	UnitHeure   = "HEURE"   // hour
	UnitUnite   = "UNITE"   // unit
)

// ValidUnit reports whether u is one of the known measurement units.
func ValidUnit(u string) bool {
	switch u {
	case UnitM2, UnitML, UnitForfait, UnitHeure, UnitUnite:
		return true
	}
	return false
}

// quoteTransitions is the allowed status transition table. ACCEPTE, REFUSE
// and EXPIRE are terminal: no transition leads back to ENVOYE or BROUILLON.
var quoteTransitions = map[string][]string{
	QuoteStatusDraft: {QuoteStatusSent},
	QuoteStatusSent:  {QuoteStatusAccepted, QuoteStatusRefused, QuoteStatusExpired},
}

// CanTransitionQuote reports whether a quote may move from one status to another.
func CanTransitionQuote(from, to string) bool {
	for _, next := range quoteTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// QuoteEditable reports whether line items, notes and the validity date may
// still be changed. Terminal quotes are frozen.
func QuoteEditable(status string) bool {
	return status == QuoteStatusDraft || status == QuoteStatusSent
}

// Quote (devis) is a priced proposal sent to a client before work begins.
// The three aggregate amounts are stored and must always equal the sums
// derived from the current line set.
type Quote struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Numero       string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"numero"`
	UserID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	ClientID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"client_id"`
	Client       *Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Lignes       []QuoteLine     `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"lignes"`
	Statut       string          `gorm:"type:varchar(20);not null;default:'BROUILLON';index" json:"statut"`
	MontantHT    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"montant_ht"`
	TVA          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"tva"`
	MontantTTC   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"montant_ttc"`
	DateValidite *time.Time      `json:"date_validite"`
	Notes        string          `gorm:"type:text" json:"notes"`
	Version      int             `gorm:"not null;default:0" json:"-"` // optimistic concurrency stamp
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (q *Quote) BeforeCreate(_ *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// QuoteLine is one priced row of a quote. MontantHT is stored, not
// recomputed on read; every write must keep it equal to Quantite × PrixUnitaire.
type QuoteLine struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	QuoteID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"quote_id"`
	Description  string          `gorm:"type:text;not null" json:"description"`
	Quantite     decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"quantite"`
	Unite        string          `gorm:"type:varchar(10);not null" json:"unite"`
	PrixUnitaire decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"prix_unitaire"`
	TauxTVA      decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"taux_tva"`
	MontantHT    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"montant_ht"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (l *QuoteLine) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
