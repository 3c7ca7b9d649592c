// Package service defines the interfaces shared by the ledger and its storage backends.
package service

import (
	"context"

	"github.com/Veraticus/mycash/internal/model"
)

// Storage defines the contract for our persistence layer. The local SQLite store and
// the remote Postgres backend both implement it, so the ledger and the aggregations
// never know which one they are talking to.
type Storage interface {
	TransactionStore
	CategoryStore
	SettingsStore

	// ReplaceAll swaps the full contents of both tables in one step.
	ReplaceAll(ctx context.Context, transactions []model.Transaction, categories []model.Category) error
	Close() error
}

// TransactionStore persists ledger entries.
type TransactionStore interface {
	// CreateTransaction stores txn and assigns txn.ID.
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	// UpdateTransaction replaces every field of the stored record with the same ID.
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	// DeleteTransaction reports false when no record had the given ID.
	DeleteTransaction(ctx context.Context, id string) (bool, error)
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	// GetTransactions returns every transaction, newest first.
	GetTransactions(ctx context.Context) ([]model.Transaction, error)
	GetTransactionCount(ctx context.Context) (int, error)
	ClearTransactions(ctx context.Context) error
}

// CategoryStore persists categories.
type CategoryStore interface {
	GetCategories(ctx context.Context) ([]model.Category, error)
	// GetCategoryByID returns nil when the category does not exist.
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	CreateCategories(ctx context.Context, categories []model.Category) error
	UpdateCategory(ctx context.Context, category *model.Category) error
	SetCategoryDefault(ctx context.Context, id string, isDefault bool) error
	DeleteCategory(ctx context.Context, id string) (bool, error)
	ClearCategories(ctx context.Context) error
}

// SettingsStore is a small key-value area for flags and documents that live outside
// the structured tables.
type SettingsStore interface {
	// GetSetting returns ok=false when the key is absent.
	GetSetting(ctx context.Context, key string) (value string, ok bool, err error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
}

// Persisted setting keys.
const (
	SettingFirstInstall = "first_install_completed"
	SettingSavingsGoals = "metas-economia"
)
