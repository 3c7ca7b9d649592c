package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/Veraticus/mycash/internal/common"
	"github.com/Veraticus/mycash/internal/model"
)

// AddTransaction validates input, stamps the current category name and persists the
// result. The returned record carries the ID assigned by the store.
func (l *Ledger) AddTransaction(ctx context.Context, input model.TransactionInput) (model.Transaction, error) {
	txn, err := parseTransactionInput(input)
	if err != nil {
		return model.Transaction{}, err
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.resolveCategory(&txn, input.CategoryID)
	if err := l.store.CreateTransaction(ctx, &txn); err != nil {
		return model.Transaction{}, fmt.Errorf("failed to add transaction: %w", err)
	}

	l.resyncTransactions(ctx, func(cached []model.Transaction) []model.Transaction {
		return append(cached, txn)
	})
	slog.Debug("Added transaction", "id", txn.ID, "kind", txn.Kind, "amount", txn.Amount.String())
	return txn, nil
}

// UpdateTransaction replaces every field of the transaction with id. The category
// name is looked up again, so moving a transaction re-stamps it.
func (l *Ledger) UpdateTransaction(ctx context.Context, id string, input model.TransactionInput) (model.Transaction, error) {
	txn, err := parseTransactionInput(input)
	if err != nil {
		return model.Transaction{}, err
	}
	if strings.TrimSpace(id) == "" {
		return model.Transaction{}, common.NewValidationError("id", "required")
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	txn.ID = id
	l.resolveCategory(&txn, input.CategoryID)
	if err := l.store.UpdateTransaction(ctx, &txn); err != nil {
		return model.Transaction{}, fmt.Errorf("failed to update transaction: %w", err)
	}

	l.resyncTransactions(ctx, func(cached []model.Transaction) []model.Transaction {
		for i := range cached {
			if cached[i].ID == id {
				cached[i] = txn
			}
		}
		return cached
	})
	return txn, nil
}

// DeleteTransaction removes the transaction with id and reports whether it existed.
// Only storage failures produce an error.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	deleted, err := l.store.DeleteTransaction(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction: %w", err)
	}
	if !deleted {
		return false, nil
	}

	l.resyncTransactions(ctx, func(cached []model.Transaction) []model.Transaction {
		return slices.DeleteFunc(cached, func(t model.Transaction) bool { return t.ID == id })
	})
	return true, nil
}

// Transactions returns every transaction, newest first.
func (l *Ledger) Transactions() []model.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.transactions)
}

// Transaction returns the cached transaction with id.
func (l *Ledger) Transaction(id string) (model.Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, txn := range l.transactions {
		if txn.ID == id {
			return txn, true
		}
	}
	return model.Transaction{}, false
}

// FilterByPeriod returns the transactions dated inside period's window ending now.
// Unknown periods return the full list.
func (l *Ledger) FilterByPeriod(period model.Period) []model.Transaction {
	now := l.now()

	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []model.Transaction
	for _, txn := range l.transactions {
		if period.Contains(txn.Date, now) {
			out = append(out, txn)
		}
	}
	return out
}

// TransactionsReferencing returns the transactions whose stored category name
// matches name, ignoring case.
func (l *Ledger) TransactionsReferencing(name string) []model.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []model.Transaction
	for _, txn := range l.transactions {
		if strings.EqualFold(strings.TrimSpace(txn.CategoryName), strings.TrimSpace(name)) {
			out = append(out, txn)
		}
	}
	return out
}

// TransactionsReferencingCategory narrows TransactionsReferencing to the
// transactions of cat's type, since categories are keyed by name and type.
func (l *Ledger) TransactionsReferencingCategory(cat model.Category) []model.Transaction {
	return slices.DeleteFunc(l.TransactionsReferencing(cat.Name), func(txn model.Transaction) bool {
		return txn.Kind != cat.Type
	})
}

// resolveCategory stamps the current name of categoryID onto txn. Unknown or empty
// ids fall back to the default label with no category id.
func (l *Ledger) resolveCategory(txn *model.Transaction, categoryID string) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	txn.CategoryID = ""
	txn.CategoryName = model.FallbackCategoryName
	if categoryID == "" {
		return
	}
	for _, cat := range l.categories {
		if cat.ID == categoryID {
			txn.CategoryID = cat.ID
			txn.CategoryName = cat.Name
			return
		}
	}
	slog.Warn("Unknown category, using fallback", "category_id", categoryID)
}

// resyncTransactions refetches the list from the store. If that read fails the
// write already succeeded, so apply is used to patch the cache instead.
func (l *Ledger) resyncTransactions(ctx context.Context, apply func([]model.Transaction) []model.Transaction) {
	fresh, err := l.store.GetTransactions(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		slog.Warn("Failed to refresh transactions, patching cache", "error", err)
		l.transactions = apply(slices.Clone(l.transactions))
		sortNewestFirst(l.transactions)
		return
	}
	l.transactions = fresh
}

func sortNewestFirst(txns []model.Transaction) {
	slices.SortStableFunc(txns, func(a, b model.Transaction) int {
		return b.Date.Compare(a.Date)
	})
}
