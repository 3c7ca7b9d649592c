package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultCategories(t *testing.T) {
	defaults := DefaultCategories()
	assert.Len(t, defaults, 10)

	var expense, income int
	seen := make(map[string]bool)
	for _, cat := range defaults {
		assert.True(t, cat.IsDefault, "%s should be default", cat.Name)
		assert.False(t, seen[cat.ID], "duplicate id %s", cat.ID)
		seen[cat.ID] = true
		switch cat.Type {
		case KindExpense:
			expense++
		case KindIncome:
			income++
		}
	}
	assert.Equal(t, 6, expense)
	assert.Equal(t, 4, income)
}

func TestIsCanonical(t *testing.T) {
	assert.True(t, IsCanonical("lazer", KindExpense))
	assert.True(t, IsCanonical("  Outros ", KindIncome))
	assert.False(t, IsCanonical("Lazer", KindIncome))
	assert.False(t, IsCanonical("Pets", KindExpense))
}

func TestParseKind(t *testing.T) {
	for input, want := range map[string]Kind{
		"income":  KindIncome,
		"entrada": KindIncome,
		"EXPENSE": KindExpense,
		"saida":   KindExpense,
	} {
		got, ok := ParseKind(input)
		assert.True(t, ok, input)
		assert.Equal(t, want, got, input)
	}

	_, ok := ParseKind("transfer")
	assert.False(t, ok)
}

func TestTransaction_DisplayCategory(t *testing.T) {
	assert.Equal(t, "Outros", Transaction{}.DisplayCategory())
	assert.Equal(t, "Lazer", Transaction{CategoryName: "Lazer"}.DisplayCategory())
}
