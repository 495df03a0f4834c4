package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account holder (the tradesperson); every client,
// quote and invoice is owned by exactly one user.
type User struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Nom        string         `gorm:"type:varchar(255);not null" json:"nom"`
	Entreprise string         `gorm:"type:varchar(255)" json:"entreprise"`
	SIRET      string         `gorm:"type:varchar(14)" json:"siret"`
	Email      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Telephone  string         `gorm:"type:varchar(20)" json:"telephone"`
	Adresse    string         `gorm:"type:text" json:"adresse"`
	Password   string         `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON requests/responses
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// BeforeCreate assigns the UUID in Go so the schema stays portable
// between postgres and the sqlite test databases.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
