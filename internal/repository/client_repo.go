package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientRepository persists clients. Every lookup is scoped to the owning
// user so documents can never reference another account's client.
type ClientRepository interface {
	Create(ctx context.Context, client *model.Client) error
	FindByID(ctx context.Context, id, userID uuid.UUID) (*model.Client, error)
	List(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Client, int64, error)
	Update(ctx context.Context, client *model.Client) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	CountByPipelineStatus(ctx context.Context, userID uuid.UUID) (map[string]int64, error)
}

type clientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *model.Client) error {
	return GetDB(ctx, r.db).Create(client).Error
}

func (r *clientRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*model.Client, error) {
	var client model.Client
	if err := GetDB(ctx, r.db).First(&client, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) List(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Client, int64, error) {
	var clients []model.Client
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Client{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Where("user_id = ?", userID).
		Order("created_at desc").Offset(offset).Limit(limit).Find(&clients).Error; err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}

func (r *clientRepository) Update(ctx context.Context, client *model.Client) error {
	return GetDB(ctx, r.db).Save(client).Error
}

func (r *clientRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Client{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *clientRepository) CountByPipelineStatus(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	type row struct {
		StatutPipeline string
		Count          int64
	}
	var rows []row
	err := GetDB(ctx, r.db).Model(&model.Client{}).
		Select("statut_pipeline, count(*) as count").
		Where("user_id = ?", userID).
		Group("statut_pipeline").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.StatutPipeline] = r.Count
	}
	return out, nil
}
