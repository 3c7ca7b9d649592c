// Package backup writes and restores the JSON backup file.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/Veraticus/mycash/internal/common"
	"github.com/Veraticus/mycash/internal/model"
	"github.com/Veraticus/mycash/internal/service"
)

// FileName is the suggested name for a backup written at now.
func FileName(now time.Time) string {
	return fmt.Sprintf("mycash-backup-%s.json", now.UTC().Format(model.DateLayout))
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for exportDate.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service exports and imports the full contents of a store.
type Service struct {
	store service.Storage
	now   func() time.Time
}

// New creates a Service over store.
func New(store service.Storage, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Export writes every transaction and category to w.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	txns, err := s.store.GetTransactions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}
	cats, err := s.store.GetCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	doc := Document{
		Transacoes: make([]TransactionRecord, 0, len(txns)),
		Categorias: make([]CategoryRecord, 0, len(cats)),
		ExportDate: s.now().UTC().Format(exportDateLayout),
		Version:    FormatVersion,
	}
	for _, txn := range txns {
		doc.Transacoes = append(doc.Transacoes, fromTransaction(txn))
	}
	for _, cat := range cats {
		doc.Categorias = append(doc.Categorias, fromCategory(cat))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	slog.Info("Exported backup", "transactions", len(txns), "categories", len(cats))
	return nil
}

// Import replaces both tables with the contents of r. A file that is not a valid
// backup reports false with a nil error and leaves the store untouched. Storage
// failures are returned. Files without categories get the default set.
func (s *Service) Import(ctx context.Context, r io.Reader) (bool, error) {
	txns, cats, err := decode(r)
	if err != nil {
		slog.Warn("Rejected backup file", "error", err)
		return false, nil
	}

	if err := s.store.ReplaceAll(ctx, txns, cats); err != nil {
		return false, fmt.Errorf("failed to restore backup: %w", err)
	}

	slog.Info("Imported backup", "transactions", len(txns), "categories", len(cats))
	return true, nil
}

// decode parses and validates a backup. Every error it returns wraps
// common.ErrInvalidBackup.
func decode(r io.Reader) ([]model.Transaction, []model.Category, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrInvalidBackup, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrInvalidBackup, err)
	}

	rawTxns, ok := fields["transacoes"]
	if !ok || !isArray(rawTxns) {
		return nil, nil, fmt.Errorf("%w: transacoes must be an array", common.ErrInvalidBackup)
	}
	var txnRecords []TransactionRecord
	if err := json.Unmarshal(rawTxns, &txnRecords); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrInvalidBackup, err)
	}

	var cats []model.Category
	rawCats, ok := fields["categorias"]
	if !ok || bytes.Equal(bytes.TrimSpace(rawCats), []byte("null")) {
		cats = model.DefaultCategories()
	} else {
		if !isArray(rawCats) {
			return nil, nil, fmt.Errorf("%w: categorias must be an array", common.ErrInvalidBackup)
		}
		var catRecords []CategoryRecord
		if err := json.Unmarshal(rawCats, &catRecords); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", common.ErrInvalidBackup, err)
		}
		if cats, err = toCategories(catRecords); err != nil {
			return nil, nil, err
		}
	}

	txns := make([]model.Transaction, 0, len(txnRecords))
	seenIDs := make(map[string]bool, len(txnRecords))
	for i, rec := range txnRecords {
		txn, err := rec.toTransaction()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: transaction %d: %w", common.ErrInvalidBackup, i, err)
		}
		// Repeated ids get a fresh one from the store.
		if seenIDs[txn.ID] {
			txn.ID = ""
		}
		if txn.ID != "" {
			seenIDs[txn.ID] = true
		}
		if txn.CategoryID == "" && txn.CategoryName != "" {
			txn.CategoryID = lookupCategory(cats, txn.CategoryName, txn.Kind)
		}
		txns = append(txns, txn)
	}
	return txns, cats, nil
}

func toCategories(records []CategoryRecord) ([]model.Category, error) {
	cats := make([]model.Category, 0, len(records))
	seenIDs := make(map[string]bool, len(records))
	for i, rec := range records {
		cat, err := rec.toCategory()
		if err != nil {
			return nil, fmt.Errorf("%w: category %d: %w", common.ErrInvalidBackup, i, err)
		}
		if cat.ID == "" || seenIDs[cat.ID] {
			cat.ID = "imported-" + strconv.Itoa(i+1)
		}
		seenIDs[cat.ID] = true
		if lookupCategory(cats, cat.Name, cat.Type) != "" {
			return nil, fmt.Errorf("%w: %q (%s): %w", common.ErrInvalidBackup, cat.Name, cat.Type, common.ErrDuplicateCategory)
		}
		cats = append(cats, cat)
	}
	return cats, nil
}

func lookupCategory(cats []model.Category, name string, kind model.Kind) string {
	for _, cat := range cats {
		if cat.SameKey(name, kind) {
			return cat.ID
		}
	}
	return ""
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
