package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activity action constants
const (
	ActionCreateDevis   = "CREATE_DEVIS"
	ActionUpdateDevis   = "UPDATE_DEVIS"
	ActionCreateFacture = "CREATE_FACTURE"
	ActionUpdateFacture = "UPDATE_FACTURE"
	ActionConvertDevis  = "CONVERT_DEVIS_FACTURE"
	ActionCreateClient  = "CREATE_CLIENT"
	ActionUpdateClient  = "UPDATE_CLIENT"
	ActionDeleteClient  = "DELETE_CLIENT"
)

// ActivityLog tracks who did what and when on documents and clients.
type ActivityLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string    `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string    `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // human readable label, e.g. the document number
	Details    string    `gorm:"type:text" json:"details"`                       // serialized JSON payload of the action
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (a *ActivityLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
