package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"backend/internal/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	// A single connection keeps the shared-cache database alive and
	// serializes writers, which sqlite requires anyway.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func TestSequenceNextFormatsAndIncrements(t *testing.T) {
	db := newTestDB(t)
	repo := NewSequenceRepository(db)
	ctx := context.Background()

	first, err := repo.Next(ctx, "DEV", 2025)
	require.NoError(t, err)
	require.Equal(t, "DEV-2025-001", first)

	second, err := repo.Next(ctx, "DEV", 2025)
	require.NoError(t, err)
	require.Equal(t, "DEV-2025-002", second)
}

func TestSequenceIndependentPerKindAndYear(t *testing.T) {
	db := newTestDB(t)
	repo := NewSequenceRepository(db)
	ctx := context.Background()

	_, err := repo.Next(ctx, "DEV", 2025)
	require.NoError(t, err)
	_, err = repo.Next(ctx, "DEV", 2025)
	require.NoError(t, err)

	facture, err := repo.Next(ctx, "FAC", 2025)
	require.NoError(t, err)
	require.Equal(t, "FAC-2025-001", facture)

	nextYear, err := repo.Next(ctx, "DEV", 2026)
	require.NoError(t, err)
	require.Equal(t, "DEV-2026-001", nextYear)
}

func TestSequenceConcurrentAllocationsAreUnique(t *testing.T) {
	db := newTestDB(t)
	repo := NewSequenceRepository(db)
	txManager := NewTransactionManager(db)

	const workers = 20
	numbers := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = txManager.RunInTx(context.Background(), func(txCtx context.Context) error {
				n, err := repo.Next(txCtx, "FAC", 2025)
				numbers[i] = n
				return err
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	seen := make(map[string]bool, workers)
	for _, n := range numbers {
		require.NotEmpty(t, n)
		require.False(t, seen[n], "duplicate number %s", n)
		seen[n] = true
	}
	// Every value from 001 to 020 must have been handed out exactly once.
	for i := 1; i <= workers; i++ {
		require.True(t, seen[fmt.Sprintf("FAC-2025-%03d", i)])
	}
}

func TestFormatNumberPadsToThreeDigits(t *testing.T) {
	require.Equal(t, "DEV-2025-007", FormatNumber("DEV", 2025, 7))
	require.Equal(t, "FAC-2025-042", FormatNumber("FAC", 2025, 42))
	require.Equal(t, "FAC-2025-1234", FormatNumber("FAC", 2025, 1234))
}
