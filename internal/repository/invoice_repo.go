package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceListFilter narrows invoice listings. EnRetard keeps only invoices
// overdue as of Now (sent and past their due date); it filters in the query
// so pagination and the total count stay consistent.
type InvoiceListFilter struct {
	Statut   string
	EnRetard bool
	Now      time.Time
	Page     int
	Limit    int
}

// InvoiceRepository persists invoices and their exclusively-owned lines.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	FindByID(ctx context.Context, id, userID uuid.UUID) (*model.Invoice, error)
	List(ctx context.Context, userID uuid.UUID, filter InvoiceListFilter) ([]model.Invoice, int64, error)
	// UpdateVersioned applies updates only when the stored version still
	// matches expectedVersion; zero rows touched means a concurrent writer won.
	UpdateVersioned(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]interface{}) (int64, error)
	ReplaceLines(ctx context.Context, invoiceID uuid.UUID, lines []model.InvoiceLine) error
	ListCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]model.Invoice, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := GetDB(ctx, r.db).Preload("Client").Preload("Lignes").
		First(&invoice, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) List(ctx context.Context, userID uuid.UUID, filter InvoiceListFilter) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Invoice{}).Where("user_id = ?", userID)
	if filter.Statut != "" {
		query = query.Where("statut = ?", filter.Statut)
	}
	if filter.EnRetard {
		query = query.Where("statut = ? AND date_echeance < ?", model.InvoiceStatusSent, filter.Now)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	fetch := db.Preload("Client").Preload("Lignes").Where("user_id = ?", userID)
	if filter.Statut != "" {
		fetch = fetch.Where("statut = ?", filter.Statut)
	}
	if filter.EnRetard {
		fetch = fetch.Where("statut = ? AND date_echeance < ?", model.InvoiceStatusSent, filter.Now)
	}
	if err := fetch.Order("created_at desc").Offset(offset).Limit(filter.Limit).Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (r *invoiceRepository) UpdateVersioned(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]interface{}) (int64, error) {
	updates["version"] = expectedVersion + 1
	res := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *invoiceRepository) ReplaceLines(ctx context.Context, invoiceID uuid.UUID, lines []model.InvoiceLine) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("invoice_id = ?", invoiceID).Delete(&model.InvoiceLine{}).Error; err != nil {
		return err
	}
	for i := range lines {
		lines[i].InvoiceID = invoiceID
	}
	return db.Create(&lines).Error
}

func (r *invoiceRepository) ListCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := GetDB(ctx, r.db).
		Select("id", "statut", "montant_ttc", "created_at").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Find(&invoices).Error
	return invoices, err
}
