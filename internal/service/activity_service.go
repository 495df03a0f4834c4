package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/repository"

	"github.com/google/uuid"
)

type ActivityResponse struct {
	ID         string `json:"id"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type ActivityService interface {
	ListActivities(ctx context.Context, userID string, page, limit int) ([]ActivityResponse, int64, error)
}

type activityService struct {
	repo repository.ActivityRepository
}

func NewActivityService(repo repository.ActivityRepository) ActivityService {
	return &activityService{repo: repo}
}

func (s *activityService) ListActivities(ctx context.Context, userID string, page, limit int) ([]ActivityResponse, int64, error) {
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
	logs, total, err := s.repo.List(ctx, uid, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("liste activites: %w", err)
	}

	out := make([]ActivityResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, ActivityResponse{
			ID:         l.ID.String(),
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format(time.RFC3339),
		})
	}
	return out, total, nil
}
