package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuoteListFilter narrows quote listings.
type QuoteListFilter struct {
	Statut string
	Page   int
	Limit  int
}

// QuoteRepository persists quotes and their exclusively-owned lines.
type QuoteRepository interface {
	Create(ctx context.Context, quote *model.Quote) error
	FindByID(ctx context.Context, id, userID uuid.UUID) (*model.Quote, error)
	List(ctx context.Context, userID uuid.UUID, filter QuoteListFilter) ([]model.Quote, int64, error)
	// UpdateVersioned applies updates only when the stored version still
	// matches expectedVersion, bumping the stamp in the same statement.
	// Returns the number of rows touched; zero means a concurrent writer won.
	UpdateVersioned(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]interface{}) (int64, error)
	// ReplaceLines swaps the full line set of a quote.
	ReplaceLines(ctx context.Context, quoteID uuid.UUID, lines []model.QuoteLine) error
	ListCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]model.Quote, error)
}

type quoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &quoteRepository{db: db}
}

func (r *quoteRepository) Create(ctx context.Context, quote *model.Quote) error {
	return GetDB(ctx, r.db).Create(quote).Error
}

func (r *quoteRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*model.Quote, error) {
	var quote model.Quote
	err := GetDB(ctx, r.db).Preload("Client").Preload("Lignes").
		First(&quote, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *quoteRepository) List(ctx context.Context, userID uuid.UUID, filter QuoteListFilter) ([]model.Quote, int64, error) {
	var quotes []model.Quote
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Quote{}).Where("user_id = ?", userID)
	if filter.Statut != "" {
		query = query.Where("statut = ?", filter.Statut)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	fetch := db.Preload("Client").Preload("Lignes").Where("user_id = ?", userID)
	if filter.Statut != "" {
		fetch = fetch.Where("statut = ?", filter.Statut)
	}
	if err := fetch.Order("created_at desc").Offset(offset).Limit(filter.Limit).Find(&quotes).Error; err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

func (r *quoteRepository) UpdateVersioned(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]interface{}) (int64, error) {
	updates["version"] = expectedVersion + 1
	res := GetDB(ctx, r.db).Model(&model.Quote{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *quoteRepository) ReplaceLines(ctx context.Context, quoteID uuid.UUID, lines []model.QuoteLine) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("quote_id = ?", quoteID).Delete(&model.QuoteLine{}).Error; err != nil {
		return err
	}
	for i := range lines {
		lines[i].QuoteID = quoteID
	}
	return db.Create(&lines).Error
}

func (r *quoteRepository) ListCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]model.Quote, error) {
	var quotes []model.Quote
	err := GetDB(ctx, r.db).
		Select("id", "statut", "montant_ttc", "created_at").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Find(&quotes).Error
	return quotes, err
}
