package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateClientRequest struct {
	Nom             string `json:"nom" binding:"required"`
	Prenom          string `json:"prenom" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Telephone       string `json:"telephone"`
	AdresseChantier string `json:"adresse_chantier"`
	Notes           string `json:"notes"`
	StatutPipeline  string `json:"statut_pipeline"`
}

type UpdateClientRequest struct {
	Nom             *string `json:"nom"`
	Prenom          *string `json:"prenom"`
	Email           *string `json:"email"`
	Telephone       *string `json:"telephone"`
	AdresseChantier *string `json:"adresse_chantier"`
	Notes           *string `json:"notes"`
}

type ClientResponse struct {
	ID              string `json:"id"`
	Nom             string `json:"nom"`
	Prenom          string `json:"prenom"`
	Email           string `json:"email"`
	Telephone       string `json:"telephone"`
	AdresseChantier string `json:"adresse_chantier"`
	Notes           string `json:"notes"`
	StatutPipeline  string `json:"statut_pipeline"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// --- Interface ---

type ClientService interface {
	CreateClient(ctx context.Context, userID string, req CreateClientRequest) (*ClientResponse, error)
	GetClient(ctx context.Context, userID, id string) (*ClientResponse, error)
	ListClients(ctx context.Context, userID string, page, limit int) ([]ClientResponse, int64, error)
	UpdateClient(ctx context.Context, userID, id string, req UpdateClientRequest) (*ClientResponse, error)
	UpdatePipelineStatus(ctx context.Context, userID, id, statut string) (*ClientResponse, error)
	DeleteClient(ctx context.Context, userID, id string) error
}

type clientService struct {
	clientRepo   repository.ClientRepository
	activityRepo repository.ActivityRepository
}

func NewClientService(clientRepo repository.ClientRepository, activityRepo repository.ActivityRepository) ClientService {
	return &clientService{clientRepo: clientRepo, activityRepo: activityRepo}
}

// --- Implementation ---

func (s *clientService) CreateClient(ctx context.Context, userID string, req CreateClientRequest) (*ClientResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: identifiant utilisateur invalide", ErrValidation)
	}
	statut := req.StatutPipeline
	if statut == "" {
		statut = model.PipelineProspect
	}
	if !model.ValidPipelineStatus(statut) {
		return nil, fmt.Errorf("%w: statut pipeline inconnu %q", ErrValidation, statut)
	}

	client := model.Client{
		UserID:          uid,
		Nom:             req.Nom,
		Prenom:          req.Prenom,
		Email:           req.Email,
		Telephone:       req.Telephone,
		AdresseChantier: req.AdresseChantier,
		Notes:           req.Notes,
		StatutPipeline:  statut,
	}
	if err := s.clientRepo.Create(ctx, &client); err != nil {
		return nil, fmt.Errorf("creation client: %w", err)
	}
	s.logActivity(ctx, uid, model.ActionCreateClient, client.ID.String(), client.Nom, nil)

	resp := toClientResponse(&client)
	return &resp, nil
}

func (s *clientService) GetClient(ctx context.Context, userID, id string) (*ClientResponse, error) {
	uid, cid, err := parseScopedID(userID, id)
	if err != nil {
		return nil, err
	}
	client, err := s.clientRepo.FindByID(ctx, cid, uid)
	if err != nil {
		return nil, clientLookupErr(err)
	}
	resp := toClientResponse(client)
	return &resp, nil
}

func (s *clientService) ListClients(ctx context.Context, userID string, page, limit int) ([]ClientResponse, int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: identifiant utilisateur invalide", ErrValidation)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	clients, total, err := s.clientRepo.List(ctx, uid, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("liste clients: %w", err)
	}
	out := make([]ClientResponse, 0, len(clients))
	for i := range clients {
		out = append(out, toClientResponse(&clients[i]))
	}
	return out, total, nil
}

func (s *clientService) UpdateClient(ctx context.Context, userID, id string, req UpdateClientRequest) (*ClientResponse, error) {
	uid, cid, err := parseScopedID(userID, id)
	if err != nil {
		return nil, err
	}
	client, err := s.clientRepo.FindByID(ctx, cid, uid)
	if err != nil {
		return nil, clientLookupErr(err)
	}

	if req.Nom != nil {
		client.Nom = *req.Nom
	}
	if req.Prenom != nil {
		client.Prenom = *req.Prenom
	}
	if req.Email != nil {
		client.Email = *req.Email
	}
	if req.Telephone != nil {
		client.Telephone = *req.Telephone
	}
	if req.AdresseChantier != nil {
		client.AdresseChantier = *req.AdresseChantier
	}
	if req.Notes != nil {
		client.Notes = *req.Notes
	}

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("mise a jour client: %w", err)
	}
	s.logActivity(ctx, uid, model.ActionUpdateClient, client.ID.String(), client.Nom, nil)

	resp := toClientResponse(client)
	return &resp, nil
}

func (s *clientService) UpdatePipelineStatus(ctx context.Context, userID, id, statut string) (*ClientResponse, error) {
	uid, cid, err := parseScopedID(userID, id)
	if err != nil {
		return nil, err
	}
	if !model.ValidPipelineStatus(statut) {
		return nil, fmt.Errorf("%w: statut pipeline inconnu %q", ErrValidation, statut)
	}
	client, err := s.clientRepo.FindByID(ctx, cid, uid)
	if err != nil {
		return nil, clientLookupErr(err)
	}

	client.StatutPipeline = statut
	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("mise a jour statut pipeline: %w", err)
	}
	s.logActivity(ctx, uid, model.ActionUpdateClient, client.ID.String(), client.Nom, map[string]any{"statut_pipeline": statut})

	resp := toClientResponse(client)
	return &resp, nil
}

func (s *clientService) DeleteClient(ctx context.Context, userID, id string) error {
	uid, cid, err := parseScopedID(userID, id)
	if err != nil {
		return err
	}
	if err := s.clientRepo.Delete(ctx, cid, uid); err != nil {
		return clientLookupErr(err)
	}
	s.logActivity(ctx, uid, model.ActionDeleteClient, cid.String(), "", nil)
	return nil
}

// --- Helpers ---

func (s *clientService) logActivity(ctx context.Context, userID uuid.UUID, action, entityID, entityName string, details map[string]any) {
	payload, _ := json.Marshal(details)
	// Activity is a trail, not a gate: a failed insert never fails the write.
	_ = s.activityRepo.Create(ctx, &model.ActivityLog{
		UserID:     userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	})
}

func toClientResponse(c *model.Client) ClientResponse {
	return ClientResponse{
		ID:              c.ID.String(),
		Nom:             c.Nom,
		Prenom:          c.Prenom,
		Email:           c.Email,
		Telephone:       c.Telephone,
		AdresseChantier: c.AdresseChantier,
		Notes:           c.Notes,
		StatutPipeline:  c.StatutPipeline,
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       c.UpdatedAt.Format(time.RFC3339),
	}
}
