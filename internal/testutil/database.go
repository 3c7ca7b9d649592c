// Package testutil provides test utilities for the mycash project.
// It offers in-memory stores with proper test isolation and helpers for failure injection.
package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/mycash/internal/model"
	"github.com/Veraticus/mycash/internal/service"
	"github.com/Veraticus/mycash/internal/storage"
	"github.com/shopspring/decimal"
)

// ErrInjected is returned by FailingStore for every failing call.
var ErrInjected = errors.New("injected storage failure")

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.Storage) error
	Transactions   []model.Transaction
	SkipMigrations bool
	// EmptyCategories removes the defaults inserted by the schema upgrade.
	EmptyCategories bool
}

// SetupTestDB creates a new in-memory test database at the latest schema version,
// holding the default categories. It automatically handles cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	// Create in-memory SQLite storage
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	ctx := context.Background()

	// Register cleanup
	t.Cleanup(func() {
		_ = store.Close()
	})

	// Run migrations unless skipped
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	if opts.EmptyCategories {
		if err := store.ClearCategories(ctx); err != nil {
			t.Fatalf("failed to clear categories: %v", err)
		}
	}

	for i := range opts.Transactions {
		if err := store.CreateTransaction(ctx, &opts.Transactions[i]); err != nil {
			t.Fatalf("failed to seed transaction %d: %v", i, err)
		}
	}

	// Run custom setup
	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// MustCount returns the number of stored transactions or fails the test.
func (db *TestDB) MustCount() int {
	db.t.Helper()
	n, err := db.Storage.GetTransactionCount(context.Background())
	if err != nil {
		db.t.Fatalf("failed to count transactions: %v", err)
	}
	return n
}

// MustCategories returns all stored categories or fails the test.
func (db *TestDB) MustCategories() []model.Category {
	db.t.Helper()
	cats, err := db.Storage.GetCategories(context.Background())
	if err != nil {
		db.t.Fatalf("failed to load categories: %v", err)
	}
	return cats
}

// Txn builds a transaction dated at local midnight.
func Txn(kind model.Kind, amount string, date time.Time, category string) model.Transaction {
	return model.Transaction{
		Kind:         kind,
		Amount:       decimal.RequireFromString(amount),
		Date:         model.DateOnly(date),
		CategoryName: category,
		Description:  category,
	}
}

// Date returns local midnight of the given day.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// FailingStore wraps a Storage and fails the calls named in Fail.
type FailingStore struct {
	service.Storage
	Fail map[string]bool
}

func (f *FailingStore) failing(name string) bool {
	return f.Fail[name]
}

// CreateTransaction implements service.Storage.
func (f *FailingStore) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if f.failing("CreateTransaction") {
		return ErrInjected
	}
	return f.Storage.CreateTransaction(ctx, txn)
}

// UpdateTransaction implements service.Storage.
func (f *FailingStore) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if f.failing("UpdateTransaction") {
		return ErrInjected
	}
	return f.Storage.UpdateTransaction(ctx, txn)
}

// DeleteTransaction implements service.Storage.
func (f *FailingStore) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	if f.failing("DeleteTransaction") {
		return false, ErrInjected
	}
	return f.Storage.DeleteTransaction(ctx, id)
}

// GetTransactions implements service.Storage.
func (f *FailingStore) GetTransactions(ctx context.Context) ([]model.Transaction, error) {
	if f.failing("GetTransactions") {
		return nil, ErrInjected
	}
	return f.Storage.GetTransactions(ctx)
}

// GetCategories implements service.Storage.
func (f *FailingStore) GetCategories(ctx context.Context) ([]model.Category, error) {
	if f.failing("GetCategories") {
		return nil, ErrInjected
	}
	return f.Storage.GetCategories(ctx)
}

// CreateCategories implements service.Storage.
func (f *FailingStore) CreateCategories(ctx context.Context, categories []model.Category) error {
	if f.failing("CreateCategories") {
		return ErrInjected
	}
	return f.Storage.CreateCategories(ctx, categories)
}

// GetSetting implements service.Storage.
func (f *FailingStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	if f.failing("GetSetting") {
		return "", false, ErrInjected
	}
	return f.Storage.GetSetting(ctx, key)
}

// SetSetting implements service.Storage.
func (f *FailingStore) SetSetting(ctx context.Context, key, value string) error {
	if f.failing("SetSetting") {
		return ErrInjected
	}
	return f.Storage.SetSetting(ctx, key, value)
}

// ReplaceAll implements service.Storage.
func (f *FailingStore) ReplaceAll(ctx context.Context, transactions []model.Transaction, categories []model.Category) error {
	if f.failing("ReplaceAll") {
		return ErrInjected
	}
	return f.Storage.ReplaceAll(ctx, transactions, categories)
}
