package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the polarity of a transaction.
type Kind string

const (
	// KindIncome marks money coming in.
	KindIncome Kind = "income"
	// KindExpense marks money going out.
	KindExpense Kind = "expense"
)

// DateLayout is the calendar date format used for transaction dates everywhere.
const DateLayout = "2006-01-02"

// FallbackCategoryName is shown for transactions whose category name is empty.
const FallbackCategoryName = "Outros"

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// ParseKind converts user input into a Kind. It accepts the English names and the
// Portuguese labels used by exported backups.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "entrada", "receita":
		return KindIncome, true
	case "expense", "saida", "saída", "despesa":
		return KindExpense, true
	default:
		return "", false
	}
}

// Transaction is a single ledger entry.
type Transaction struct {
	Date         time.Time
	Amount       decimal.Decimal
	ID           string
	Kind         Kind
	CategoryID   string
	CategoryName string // Category name captured when the transaction was written
	Description  string
	Notes        string
	Tags         []string
}

// DisplayCategory returns the stored category name or the fallback label.
func (t Transaction) DisplayCategory() string {
	if strings.TrimSpace(t.CategoryName) == "" {
		return FallbackCategoryName
	}
	return t.CategoryName
}

// TransactionInput is the write shape shared by every storage backend.
type TransactionInput struct {
	Description     string
	Amount          string
	Type            string
	TransactionDate string
	CategoryID      string
	Notes           string
	Tags            []string
}

// ParseDate parses a calendar date into local midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
