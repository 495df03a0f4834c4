package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatutPipeline enum constants: the CRM stage of a client, independent
// from any document status.
const (
	PipelineProspect    = "PROSPECT"
	PipelineContacte    = "CONTACTE"
	PipelineDevisEnvoye = "DEVIS_ENVOYE"
	PipelineNegociation = "NEGOCIATION"
	PipelineSigne       = "SIGNE"
	PipelineEnCours     = "EN_COURS"
	PipelineTermine     = "TERMINE"
	PipelinePerdu       = "PERDU"
)

// PipelineStatuses lists every accepted pipeline stage.
var PipelineStatuses = []string{
	PipelineProspect,
	PipelineContacte,
	PipelineDevisEnvoye,
	PipelineNegociation,
	PipelineSigne,
	PipelineEnCours,
	PipelineTermine,
	PipelinePerdu,
}

// ValidPipelineStatus reports whether s is one of the known pipeline stages.
func ValidPipelineStatus(s string) bool {
	for _, v := range PipelineStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Client represents a customer of the account holder.
type Client struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Nom             string         `gorm:"type:varchar(255);not null" json:"nom"`
	Prenom          string         `gorm:"type:varchar(255)" json:"prenom"`
	Email           string         `gorm:"type:varchar(255)" json:"email"`
	Telephone       string         `gorm:"type:varchar(20)" json:"telephone"`
	AdresseChantier string         `gorm:"type:text" json:"adresse_chantier"`
	Notes           string         `gorm:"type:text" json:"notes"`
	StatutPipeline  string         `gorm:"type:varchar(20);not null;default:'PROSPECT';index" json:"statut_pipeline"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Client) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
