package cli

import (
	"strings"
	"time"

	"github.com/Veraticus/mycash/internal/model"
	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount in Brazilian reais, e.g. "R$ 1.234,56".
func FormatMoney(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}

	return sign + "R$ " + grouped.String() + "," + frac
}

// SignedAmount renders an amount with the sign implied by kind.
func SignedAmount(kind model.Kind, amount decimal.Decimal) string {
	if kind == model.KindIncome {
		return "+" + FormatMoney(amount)
	}
	return "-" + FormatMoney(amount)
}

// FormatSigned is SignedAmount in the kind's color.
func FormatSigned(kind model.Kind, amount decimal.Decimal) string {
	if kind == model.KindIncome {
		return IncomeStyle.Render(SignedAmount(kind, amount))
	}
	return ExpenseStyle.Render(SignedAmount(kind, amount))
}

// FormatDate renders a calendar date as dd/mm/yyyy.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatPercent renders a percentage with one decimal and a comma separator.
func FormatPercent(p float64) string {
	return strings.Replace(decimal.NewFromFloat(p).StringFixed(1), ".", ",", 1) + "%"
}
