package repository

import (
	"context"
	"fmt"

	"backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceRepository hands out document numbers. Numbers are unique and
// strictly increasing per kind and issuance year, even under concurrent
// creations: the counter row is advanced with an in-place UPDATE that the
// database serializes, instead of scanning for the current maximum.
type SequenceRepository interface {
	// Next allocates the next number for kind/year and returns it formatted
	// as {KIND}-{YEAR}-{SEQ}, e.g. DEV-2025-001.
	Next(ctx context.Context, kind string, year int) (string, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

func (r *sequenceRepository) Next(ctx context.Context, kind string, year int) (string, error) {
	db := GetDB(ctx, r.db)

	// Ensure the counter row exists. The unique index on (kind, year) makes
	// concurrent first allocations collapse onto a single row.
	seed := model.DocumentSequence{Kind: kind, Year: year, LastValue: 0}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kind"}, {Name: "year"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return "", fmt.Errorf("seed sequence %s-%d: %w", kind, year, err)
	}

	// Atomic read-and-increment. Inside a transaction the row stays locked
	// until commit, so two allocators cannot read the same value.
	if err := db.Model(&model.DocumentSequence{}).
		Where("kind = ? AND year = ?", kind, year).
		UpdateColumn("last_value", gorm.Expr("last_value + 1")).Error; err != nil {
		return "", fmt.Errorf("advance sequence %s-%d: %w", kind, year, err)
	}

	var seq model.DocumentSequence
	if err := db.Where("kind = ? AND year = ?", kind, year).First(&seq).Error; err != nil {
		return "", fmt.Errorf("read sequence %s-%d: %w", kind, year, err)
	}

	return FormatNumber(kind, year, seq.LastValue), nil
}

// FormatNumber renders a document number: 3-letter kind code, 4-digit year,
// zero-padded sequence with a 3-digit minimum.
func FormatNumber(kind string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%03d", kind, year, seq)
}
