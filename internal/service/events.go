package service

import "time"

// Event types pushed to connected dashboards.
const (
	EventDevisCree     = "devis.cree"
	EventDevisStatut   = "devis.statut"
	EventFactureCree   = "facture.cree"
	EventFactureStatut = "facture.statut"
	EventDevisConverti = "devis.converti"
)

// Event is a document lifecycle notification.
type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	DocumentID string    `json:"document_id"`
	Numero     string    `json:"numero"`
	Statut     string    `json:"statut,omitempty"`
	At         time.Time `json:"at"`
}

// EventPublisher fans lifecycle events out to listeners (the websocket hub
// in production). Publishing is best-effort and must never block or fail a
// write path; a nil publisher is allowed and ignored.
type EventPublisher interface {
	Publish(event Event)
}
