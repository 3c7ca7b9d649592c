package ledger

import (
	"strings"

	"github.com/Veraticus/mycash/internal/common"
	"github.com/Veraticus/mycash/internal/model"
	"github.com/shopspring/decimal"
)

// parseAmount accepts a plain decimal string. A lone comma is read as the decimal
// separator so "12,50" works as typed.
func parseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, common.NewValidationError("amount", "required")
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, common.NewValidationError("amount", "not a number: "+raw)
	}
	if amount.IsNegative() {
		return decimal.Zero, common.NewValidationError("amount", "must not be negative")
	}
	return amount, nil
}

// parseTransactionInput validates every field except the category, which needs the
// cache to resolve.
func parseTransactionInput(input model.TransactionInput) (model.Transaction, error) {
	var txn model.Transaction

	amount, err := parseAmount(input.Amount)
	if err != nil {
		return txn, err
	}

	kind, ok := model.ParseKind(input.Type)
	if !ok {
		return txn, common.NewValidationError("type", "must be income or expense")
	}

	if strings.TrimSpace(input.TransactionDate) == "" {
		return txn, common.NewValidationError("date", "required")
	}
	date, err := model.ParseDate(input.TransactionDate)
	if err != nil {
		return txn, common.NewValidationError("date", "expected YYYY-MM-DD")
	}

	txn.Kind = kind
	txn.Amount = amount
	txn.Date = date
	txn.Description = strings.TrimSpace(input.Description)
	txn.Notes = strings.TrimSpace(input.Notes)
	txn.Tags = cleanTags(input.Tags)
	return txn, nil
}

func cleanTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// parseCategoryInput trims and checks the editable category fields.
func parseCategoryInput(input model.CategoryInput) (model.CategoryInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Color = strings.TrimSpace(input.Color)
	input.Icon = strings.TrimSpace(input.Icon)
	if input.Name == "" {
		return input, common.NewValidationError("name", "required")
	}
	if !input.Type.Valid() {
		return input, common.NewValidationError("type", "must be income or expense")
	}
	return input, nil
}
