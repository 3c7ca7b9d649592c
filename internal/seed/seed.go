// Package seed bootstraps a fresh store and repairs the default category set.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/mycash/internal/model"
	"github.com/Veraticus/mycash/internal/service"
	"github.com/shopspring/decimal"
)

// Sample is one of the illustrative transactions inserted on first install.
type Sample struct {
	Description string
	Category    string
	Kind        model.Kind
	Amount      int64
	DaysAgo     int
}

// Samples returns the transactions inserted on first install.
func Samples() []Sample {
	return []Sample{
		{Description: "Salário mensal", Category: "Salário", Kind: model.KindIncome, Amount: 5000, DaysAgo: 0},
		{Description: "Supermercado", Category: "Alimentação", Kind: model.KindExpense, Amount: 350, DaysAgo: 1},
		{Description: "Uber", Category: "Transporte", Kind: model.KindExpense, Amount: 25, DaysAgo: 2},
		{Description: "Aluguel", Category: "Moradia", Kind: model.KindExpense, Amount: 1200, DaysAgo: 3},
	}
}

func (s Sample) matches(txn model.Transaction) bool {
	return txn.Kind == s.Kind &&
		txn.Description == s.Description &&
		strings.EqualFold(txn.CategoryName, s.Category) &&
		txn.Amount.Equal(decimal.NewFromInt(s.Amount))
}

// Status summarizes what is currently stored.
type Status struct {
	Transactions          int
	Categories            int
	DefaultCategories     int
	FirstInstallCompleted bool
}

// Option configures a Seeder.
type Option func(*Seeder)

// WithClock overrides the time source used to date sample transactions.
func WithClock(now func() time.Time) Option {
	return func(s *Seeder) {
		s.now = now
	}
}

// WithSampleData toggles the first-install sample transactions.
func WithSampleData(enabled bool) Option {
	return func(s *Seeder) {
		s.sampleData = enabled
	}
}

// Seeder owns default categories, the first-install sample data and full resets.
type Seeder struct {
	store      service.Storage
	now        func() time.Time
	sampleData bool
}

// New creates a Seeder over store.
func New(store service.Storage, opts ...Option) *Seeder {
	s := &Seeder{
		store:      store,
		now:        time.Now,
		sampleData: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs the startup seeding. Failures are logged and never returned, so a
// broken seed step cannot keep the ledger from opening.
func (s *Seeder) Run(ctx context.Context) {
	if _, err := s.EnsureDefaultCategories(ctx); err != nil {
		slog.Error("Failed to ensure default categories", "error", err)
	}
	if !s.sampleData {
		return
	}
	if _, err := s.SeedSampleTransactionsOnce(ctx); err != nil {
		slog.Error("Failed to seed sample transactions", "error", err)
	}
}

// EnsureDefaultCategories inserts the canonical categories into an empty table, or
// otherwise corrects every stored category whose default flag disagrees with the
// canonical set. It returns the number of rows inserted or corrected.
func (s *Seeder) EnsureDefaultCategories(ctx context.Context) (int, error) {
	existing, err := s.store.GetCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load categories: %w", err)
	}

	if len(existing) == 0 {
		defaults := model.DefaultCategories()
		if err := s.store.CreateCategories(ctx, defaults); err != nil {
			return 0, fmt.Errorf("failed to insert default categories: %w", err)
		}
		slog.Info("Inserted default categories", "count", len(defaults))
		return len(defaults), nil
	}

	fixed := 0
	for _, cat := range existing {
		want := model.IsCanonical(cat.Name, cat.Type)
		if cat.IsDefault == want {
			continue
		}
		if err := s.store.SetCategoryDefault(ctx, cat.ID, want); err != nil {
			return fixed, fmt.Errorf("failed to repair category %q: %w", cat.Name, err)
		}
		slog.Warn("Repaired default flag", "category", cat.Name, "type", cat.Type, "is_default", want)
		fixed++
	}
	return fixed, nil
}

// SeedSampleTransactionsOnce inserts the sample transactions on the very first run.
// The first-install marker is set afterwards and blocks any later seeding, even once
// the table is empty again. A first run over existing data only sets the marker.
func (s *Seeder) SeedSampleTransactionsOnce(ctx context.Context) (bool, error) {
	_, done, err := s.store.GetSetting(ctx, service.SettingFirstInstall)
	if err != nil {
		return false, fmt.Errorf("failed to read first-install marker: %w", err)
	}
	if done {
		return false, nil
	}

	count, err := s.store.GetTransactionCount(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count transactions: %w", err)
	}
	if count > 0 {
		slog.Debug("Existing transactions found, skipping sample data", "count", count)
		return false, s.markInstalled(ctx)
	}

	categories, err := s.store.GetCategories(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load categories: %w", err)
	}

	today := model.DateOnly(s.now())
	for _, sample := range Samples() {
		txn := &model.Transaction{
			Kind:         sample.Kind,
			Amount:       decimal.NewFromInt(sample.Amount),
			Date:         today.AddDate(0, 0, -sample.DaysAgo),
			CategoryID:   categoryID(categories, sample.Category, sample.Kind),
			CategoryName: sample.Category,
			Description:  sample.Description,
		}
		if err := s.store.CreateTransaction(ctx, txn); err != nil {
			return false, fmt.Errorf("failed to insert sample %q: %w", sample.Description, err)
		}
	}

	if err := s.markInstalled(ctx); err != nil {
		return true, err
	}
	slog.Info("Inserted sample transactions", "count", len(Samples()))
	return true, nil
}

func (s *Seeder) markInstalled(ctx context.Context) error {
	if err := s.store.SetSetting(ctx, service.SettingFirstInstall, "true"); err != nil {
		return fmt.Errorf("failed to set first-install marker: %w", err)
	}
	return nil
}

// ResetAll clears transactions and categories and forgets the first install, so the
// next Run starts from scratch.
func (s *Seeder) ResetAll(ctx context.Context) error {
	if err := s.store.ClearTransactions(ctx); err != nil {
		return err
	}
	if err := s.store.ClearCategories(ctx); err != nil {
		return err
	}
	if err := s.store.DeleteSetting(ctx, service.SettingFirstInstall); err != nil {
		return err
	}
	slog.Info("Store reset")
	return nil
}

// ClearSampleData deletes transactions that still look exactly like the samples.
// The marker stays, so they are not inserted again.
func (s *Seeder) ClearSampleData(ctx context.Context) (int, error) {
	txns, err := s.store.GetTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load transactions: %w", err)
	}

	removed := 0
	for _, txn := range txns {
		if !isSample(txn) {
			continue
		}
		deleted, err := s.store.DeleteTransaction(ctx, txn.ID)
		if err != nil {
			return removed, fmt.Errorf("failed to delete sample %q: %w", txn.Description, err)
		}
		if deleted {
			removed++
		}
	}
	return removed, nil
}

// Status counts stored rows and reports the marker.
func (s *Seeder) Status(ctx context.Context) (Status, error) {
	var status Status

	count, err := s.store.GetTransactionCount(ctx)
	if err != nil {
		return status, fmt.Errorf("failed to count transactions: %w", err)
	}
	status.Transactions = count

	categories, err := s.store.GetCategories(ctx)
	if err != nil {
		return status, fmt.Errorf("failed to load categories: %w", err)
	}
	status.Categories = len(categories)
	for _, cat := range categories {
		if cat.IsDefault {
			status.DefaultCategories++
		}
	}

	_, status.FirstInstallCompleted, err = s.store.GetSetting(ctx, service.SettingFirstInstall)
	if err != nil {
		return status, fmt.Errorf("failed to read first-install marker: %w", err)
	}
	return status, nil
}

func isSample(txn model.Transaction) bool {
	for _, sample := range Samples() {
		if sample.matches(txn) {
			return true
		}
	}
	return false
}

func categoryID(categories []model.Category, name string, kind model.Kind) string {
	for _, cat := range categories {
		if cat.SameKey(name, kind) {
			return cat.ID
		}
	}
	return ""
}
