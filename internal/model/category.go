package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Category groups transactions of a single kind.
type Category struct {
	BudgetLimit *decimal.Decimal
	ID          string
	Name        string
	Type        Kind
	Color       string
	Icon        string
	IsDefault   bool
}

// CategoryInput carries the user-editable fields of a category.
type CategoryInput struct {
	Name  string
	Type  Kind
	Color string
	Icon  string

	// BudgetLimit is a decimal string; empty leaves the limit unset or unchanged.
	BudgetLimit string
}

// SameKey reports whether c has the given name (case-insensitive) and type.
func (c Category) SameKey(name string, kind Kind) bool {
	return c.Type == kind && strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(name))
}

// DefaultCategories returns the canonical set seeded on first run.
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Alimentação", Type: KindExpense, Icon: "ShoppingBag", IsDefault: true},
		{ID: "2", Name: "Transporte", Type: KindExpense, Icon: "Car", IsDefault: true},
		{ID: "3", Name: "Moradia", Type: KindExpense, Icon: "Home", IsDefault: true},
		{ID: "4", Name: "Lazer", Type: KindExpense, Icon: "Gamepad2", IsDefault: true},
		{ID: "5", Name: "Saúde", Type: KindExpense, Icon: "Heart", IsDefault: true},
		{ID: "6", Name: "Educação", Type: KindExpense, Icon: "BookOpen", IsDefault: true},
		{ID: "7", Name: "Salário", Type: KindIncome, Icon: "TrendingUp", IsDefault: true},
		{ID: "8", Name: "Freelance", Type: KindIncome, Icon: "Briefcase", IsDefault: true},
		{ID: "9", Name: "Investimentos", Type: KindIncome, Icon: "PiggyBank", IsDefault: true},
		{ID: "10", Name: "Outros", Type: KindIncome, Icon: "Plus", IsDefault: true},
	}
}

// IsCanonical reports whether (name, kind) belongs to the default set.
func IsCanonical(name string, kind Kind) bool {
	for _, def := range DefaultCategories() {
		if def.SameKey(name, kind) {
			return true
		}
	}
	return false
}
