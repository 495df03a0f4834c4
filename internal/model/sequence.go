package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document kind codes used as numbering prefixes.
const (
	DocKindQuote   = "DEV"
	DocKindInvoice = "FAC"
)

// DocumentSequence is the per-kind-per-year counter backing document
// numbering. LastValue is only ever advanced with an atomic in-place
// increment so concurrent creations cannot observe the same value.
type DocumentSequence struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Kind      string    `gorm:"type:varchar(3);not null;uniqueIndex:idx_doc_seq_kind_year" json:"kind"`
	Year      int       `gorm:"not null;uniqueIndex:idx_doc_seq_kind_year" json:"year"`
	LastValue int64     `gorm:"not null;default:0" json:"last_value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *DocumentSequence) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
