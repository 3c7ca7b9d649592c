package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/Veraticus/mycash/internal/common"
	"github.com/Veraticus/mycash/internal/model"
	"github.com/shopspring/decimal"
)

// AddCategory creates a user category. A case-insensitive (name, type) clash fails
// with common.ErrDuplicateCategory. User categories are never default.
func (l *Ledger) AddCategory(ctx context.Context, input model.CategoryInput) (model.Category, error) {
	input, err := parseCategoryInput(input)
	if err != nil {
		return model.Category{}, err
	}
	limit, err := parseBudget(input.BudgetLimit)
	if err != nil {
		return model.Category{}, err
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if l.hasDuplicate(input.Name, input.Type, "") {
		return model.Category{}, fmt.Errorf("%q (%s): %w", input.Name, input.Type, common.ErrDuplicateCategory)
	}

	cat := model.Category{
		ID:          l.nextCategoryID(),
		Name:        input.Name,
		Type:        input.Type,
		Color:       input.Color,
		Icon:        input.Icon,
		BudgetLimit: limit,
	}
	if err := l.store.CreateCategories(ctx, []model.Category{cat}); err != nil {
		return model.Category{}, fmt.Errorf("failed to add category: %w", err)
	}

	l.resyncCategories(ctx, func(cached []model.Category) []model.Category {
		return append(cached, cat)
	})
	return cat, nil
}

// UpdateCategory renames or recolors the category with id. Existing transactions
// keep the name they were written with. The default flag follows the new
// (name, type) pair.
func (l *Ledger) UpdateCategory(ctx context.Context, id string, input model.CategoryInput) (model.Category, error) {
	input, err := parseCategoryInput(input)
	if err != nil {
		return model.Category{}, err
	}
	limit, err := parseBudget(input.BudgetLimit)
	if err != nil {
		return model.Category{}, err
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	current, ok := l.Category(id)
	if !ok {
		return model.Category{}, fmt.Errorf("category %q: %w", id, common.ErrNotFound)
	}
	if l.hasDuplicate(input.Name, input.Type, id) {
		return model.Category{}, fmt.Errorf("%q (%s): %w", input.Name, input.Type, common.ErrDuplicateCategory)
	}

	updated := current
	updated.Name = input.Name
	updated.Type = input.Type
	updated.IsDefault = model.IsCanonical(input.Name, input.Type)
	if input.Color != "" {
		updated.Color = input.Color
	}
	if input.Icon != "" {
		updated.Icon = input.Icon
	}
	if limit != nil {
		updated.BudgetLimit = limit
	}

	if err := l.store.UpdateCategory(ctx, &updated); err != nil {
		return model.Category{}, fmt.Errorf("failed to update category: %w", err)
	}

	l.resyncCategories(ctx, func(cached []model.Category) []model.Category {
		for i := range cached {
			if cached[i].ID == id {
				cached[i] = updated
			}
		}
		return cached
	})
	return updated, nil
}

// DeleteCategory removes the category with id. It refuses with
// common.ErrCategoryInUse while any transaction of the category's type still
// carries its name, and reports false for unknown ids.
func (l *Ledger) DeleteCategory(ctx context.Context, id string) (bool, error) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	cat, ok := l.Category(id)
	if !ok {
		return false, nil
	}
	if refs := l.TransactionsReferencingCategory(cat); len(refs) > 0 {
		return false, fmt.Errorf("%q has %d transactions: %w", cat.Name, len(refs), common.ErrCategoryInUse)
	}

	deleted, err := l.store.DeleteCategory(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete category: %w", err)
	}
	if !deleted {
		return false, nil
	}

	l.resyncCategories(ctx, func(cached []model.Category) []model.Category {
		return slices.DeleteFunc(cached, func(c model.Category) bool { return c.ID == id })
	})
	return true, nil
}

// Categories returns every category.
func (l *Ledger) Categories() []model.Category {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.categories)
}

// CategoriesByType returns the categories usable for kind.
func (l *Ledger) CategoriesByType(kind model.Kind) []model.Category {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []model.Category
	for _, cat := range l.categories {
		if cat.Type == kind {
			out = append(out, cat)
		}
	}
	return out
}

// Category returns the cached category with id.
func (l *Ledger) Category(id string) (model.Category, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, cat := range l.categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return model.Category{}, false
}

func (l *Ledger) hasDuplicate(name string, kind model.Kind, excludeID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, cat := range l.categories {
		if cat.ID != excludeID && cat.SameKey(name, kind) {
			return true
		}
	}
	return false
}

// nextCategoryID derives an id from the clock in milliseconds, stepping forward
// past any id already taken.
func (l *Ledger) nextCategoryID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	taken := make(map[string]bool, len(l.categories))
	for _, cat := range l.categories {
		taken[cat.ID] = true
	}
	n := l.now().UnixMilli()
	for taken[strconv.FormatInt(n, 10)] {
		n++
	}
	return strconv.FormatInt(n, 10)
}

func (l *Ledger) resyncCategories(ctx context.Context, apply func([]model.Category) []model.Category) {
	fresh, err := l.store.GetCategories(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		slog.Warn("Failed to refresh categories, patching cache", "error", err)
		l.categories = apply(slices.Clone(l.categories))
		return
	}
	l.categories = fresh
}

func parseBudget(raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	limit, err := parseAmount(raw)
	if err != nil {
		return nil, common.NewValidationError("budget_limit", "must be a non-negative number")
	}
	return &limit, nil
}
