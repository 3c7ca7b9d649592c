// Package ledger is the query and command surface for transactions and categories.
// It validates input, keeps a cached copy of both tables and answers reads from it.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/mycash/internal/aggregate"
	"github.com/Veraticus/mycash/internal/model"
	"github.com/Veraticus/mycash/internal/service"
	"golang.org/x/sync/errgroup"
)

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used for period windows and category ids.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// Ledger serves transactions and categories from a cache that is refreshed after
// every successful write.
type Ledger struct {
	store        service.Storage
	now          func() time.Time
	transactions []model.Transaction
	categories   []model.Category
	writeMu      sync.Mutex
	mu           sync.RWMutex
}

// New creates a Ledger over store and loads its cache.
func New(ctx context.Context, store service.Storage, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.Reload(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload refetches both tables. The cache is left untouched when either read fails.
func (l *Ledger) Reload(ctx context.Context) error {
	var (
		transactions []model.Transaction
		categories   []model.Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		transactions, err = l.store.GetTransactions(gctx)
		if err != nil {
			return fmt.Errorf("failed to load transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		categories, err = l.store.GetCategories(gctx)
		if err != nil {
			return fmt.Errorf("failed to load categories: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	l.mu.Lock()
	l.transactions = transactions
	l.categories = categories
	l.mu.Unlock()

	slog.Debug("Ledger cache loaded", "transactions", len(transactions), "categories", len(categories))
	return nil
}

// Balance sums the full history.
func (l *Ledger) Balance() aggregate.Totals {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return aggregate.Summarize(l.transactions)
}

// SummaryForPeriod totals only the transactions inside period.
func (l *Ledger) SummaryForPeriod(period model.Period) aggregate.Summary {
	return aggregate.SummarizePeriod(period, l.FilterByPeriod(period), l.now())
}

// Close releases the underlying store.
func (l *Ledger) Close() error {
	return l.store.Close()
}
