// Package aggregate computes balances and category breakdowns over transactions.
// Every function is pure; callers decide which transactions to pass in.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/mycash/internal/model"
	"github.com/shopspring/decimal"
)

// Totals holds income, expenses and their difference.
type Totals struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Balance  decimal.Decimal
}

// CategoryShare is one slice of the expense breakdown.
type CategoryShare struct {
	Name    string
	Total   decimal.Decimal
	Percent float64
}

// Summary is the data behind a period report.
type Summary struct {
	Start        time.Time
	End          time.Time
	Totals       Totals
	Period       model.Period
	Label        string
	Expenses     []CategoryShare
	Transactions int
}

var hundred = decimal.NewFromInt(100)

// Summarize sums txns by kind.
func Summarize(txns []model.Transaction) Totals {
	totals := Totals{
		Income:   decimal.Zero,
		Expenses: decimal.Zero,
	}
	for _, txn := range txns {
		switch txn.Kind {
		case model.KindIncome:
			totals.Income = totals.Income.Add(txn.Amount)
		case model.KindExpense:
			totals.Expenses = totals.Expenses.Add(txn.Amount)
		}
	}
	totals.Balance = totals.Income.Sub(totals.Expenses)
	return totals
}

// Balance is total income minus total expenses.
func Balance(txns []model.Transaction) decimal.Decimal {
	return Summarize(txns).Balance
}

// GroupExpensesByCategory sums expense amounts per category name. Transactions with
// no category name are grouped under the fallback name.
func GroupExpensesByCategory(txns []model.Transaction) map[string]decimal.Decimal {
	groups := make(map[string]decimal.Decimal)
	for _, txn := range txns {
		if txn.Kind != model.KindExpense {
			continue
		}
		name := txn.DisplayCategory()
		groups[name] = groups[name].Add(txn.Amount)
	}
	return groups
}

// CategoryShares orders groups by total, largest first, and attaches each one's
// percentage of the overall sum. A zero overall sum yields 0% everywhere.
func CategoryShares(groups map[string]decimal.Decimal) []CategoryShare {
	total := decimal.Zero
	for _, amount := range groups {
		total = total.Add(amount)
	}

	shares := make([]CategoryShare, 0, len(groups))
	for name, amount := range groups {
		share := CategoryShare{Name: name, Total: amount}
		if total.IsPositive() {
			share.Percent, _ = amount.Div(total).Mul(hundred).Float64()
		}
		shares = append(shares, share)
	}

	sort.Slice(shares, func(i, j int) bool {
		if cmp := shares[i].Total.Cmp(shares[j].Total); cmp != 0 {
			return cmp > 0
		}
		return shares[i].Name < shares[j].Name
	})
	return shares
}

// SummarizePeriod builds the report data for txns already restricted to period.
func SummarizePeriod(period model.Period, txns []model.Transaction, now time.Time) Summary {
	start, ok := period.Start(now)
	if !ok {
		start = earliest(txns)
	}
	return Summary{
		Period:       period,
		Label:        PeriodLabel(period, now),
		Start:        start,
		End:          now,
		Totals:       Summarize(txns),
		Expenses:     CategoryShares(GroupExpensesByCategory(txns)),
		Transactions: len(txns),
	}
}

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// PeriodLabel renders the report title for period.
func PeriodLabel(period model.Period, now time.Time) string {
	switch period {
	case model.PeriodWeek:
		start, _ := period.Start(now)
		return fmt.Sprintf("Semana (%s - %s)", start.Format("02/01/2006"), now.Format("02/01/2006"))
	case model.PeriodMonth:
		return fmt.Sprintf("Mês de %s de %d", monthNames[now.Month()-1], now.Year())
	case model.PeriodQuarter:
		return fmt.Sprintf("%dº Trimestre de %d", (int(now.Month())-1)/3+1, now.Year())
	case model.PeriodYear:
		return fmt.Sprintf("Ano de %d", now.Year())
	default:
		return "Todo o período"
	}
}

func earliest(txns []model.Transaction) time.Time {
	var first time.Time
	for _, txn := range txns {
		if first.IsZero() || txn.Date.Before(first) {
			first = txn.Date
		}
	}
	return first
}
