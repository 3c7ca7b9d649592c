package aggregate

import (
	"testing"
	"time"

	"github.com/Veraticus/mycash/internal/model"
	"github.com/Veraticus/mycash/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSummarize(t *testing.T) {
	d := testutil.Date(2024, 3, 1)
	tests := []struct {
		name string
		want Totals
		txns []model.Transaction
	}{
		{
			name: "empty",
			want: Totals{Income: decimal.Zero, Expenses: decimal.Zero, Balance: decimal.Zero},
		},
		{
			name: "mixed",
			txns: []model.Transaction{
				testutil.Txn(model.KindIncome, "5000", d, "Salário"),
				testutil.Txn(model.KindExpense, "350", d, "Alimentação"),
				testutil.Txn(model.KindExpense, "25", d, "Transporte"),
				testutil.Txn(model.KindExpense, "1200", d, "Moradia"),
			},
			want: Totals{Income: dec("5000"), Expenses: dec("1575"), Balance: dec("3425")},
		},
		{
			name: "negative balance",
			txns: []model.Transaction{
				testutil.Txn(model.KindIncome, "0.10", d, "Outros"),
				testutil.Txn(model.KindExpense, "0.30", d, "Lazer"),
			},
			want: Totals{Income: dec("0.10"), Expenses: dec("0.30"), Balance: dec("-0.20")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.txns)
			assert.True(t, tt.want.Income.Equal(got.Income), "income %s", got.Income)
			assert.True(t, tt.want.Expenses.Equal(got.Expenses), "expenses %s", got.Expenses)
			assert.True(t, tt.want.Balance.Equal(got.Balance), "balance %s", got.Balance)
			assert.True(t, tt.want.Balance.Equal(Balance(tt.txns)))
		})
	}
}

func TestSummarize_DecimalExactness(t *testing.T) {
	d := testutil.Date(2024, 3, 1)
	txns := []model.Transaction{
		testutil.Txn(model.KindIncome, "0.1", d, "Outros"),
		testutil.Txn(model.KindIncome, "0.2", d, "Outros"),
	}
	assert.Equal(t, "0.3", Summarize(txns).Income.String())
}

func TestGroupExpensesByCategory(t *testing.T) {
	d := testutil.Date(2024, 3, 1)
	txns := []model.Transaction{
		testutil.Txn(model.KindExpense, "10", d, "Lazer"),
		testutil.Txn(model.KindExpense, "15", d, "Lazer"),
		testutil.Txn(model.KindExpense, "7", d, ""),
		testutil.Txn(model.KindExpense, "3", d, "Outros"),
		testutil.Txn(model.KindIncome, "100", d, "Lazer"),
	}

	groups := GroupExpensesByCategory(txns)
	require.Len(t, groups, 2)
	assert.True(t, dec("25").Equal(groups["Lazer"]))
	assert.True(t, dec("10").Equal(groups[model.FallbackCategoryName]))
}

func TestCategoryShares(t *testing.T) {
	shares := CategoryShares(map[string]decimal.Decimal{
		"Moradia":     dec("1200"),
		"Alimentação": dec("350"),
		"Transporte":  dec("25"),
		"Lazer":       dec("25"),
	})

	require.Len(t, shares, 4)
	assert.Equal(t, "Moradia", shares[0].Name)
	assert.Equal(t, "Alimentação", shares[1].Name)
	assert.Equal(t, "Lazer", shares[2].Name)
	assert.Equal(t, "Transporte", shares[3].Name)
	assert.InDelta(t, 75.0, shares[0].Percent, 0.01)

	var sum float64
	for _, s := range shares {
		sum += s.Percent
	}
	assert.InDelta(t, 100.0, sum, 0.0001)
}

func TestCategoryShares_ZeroTotal(t *testing.T) {
	shares := CategoryShares(map[string]decimal.Decimal{"Lazer": decimal.Zero})
	require.Len(t, shares, 1)
	assert.Zero(t, shares[0].Percent)

	assert.Empty(t, CategoryShares(nil))
}

func TestPeriodLabel(t *testing.T) {
	now := time.Date(2024, time.May, 20, 10, 0, 0, 0, time.Local)
	tests := []struct {
		period model.Period
		want   string
	}{
		{model.PeriodWeek, "Semana (13/05/2024 - 20/05/2024)"},
		{model.PeriodMonth, "Mês de maio de 2024"},
		{model.PeriodQuarter, "2º Trimestre de 2024"},
		{model.PeriodYear, "Ano de 2024"},
		{model.Period("all"), "Todo o período"},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			assert.Equal(t, tt.want, PeriodLabel(tt.period, now))
		})
	}
}

func TestSummarizePeriod(t *testing.T) {
	now := time.Date(2024, time.May, 20, 10, 0, 0, 0, time.Local)
	txns := []model.Transaction{
		testutil.Txn(model.KindIncome, "100", testutil.Date(2024, 5, 2), "Salário"),
		testutil.Txn(model.KindExpense, "40", testutil.Date(2024, 5, 3), "Lazer"),
	}

	summary := SummarizePeriod(model.PeriodMonth, txns, now)
	assert.Equal(t, 2, summary.Transactions)
	assert.True(t, testutil.Date(2024, 5, 1).Equal(summary.Start))
	assert.True(t, dec("60").Equal(summary.Totals.Balance))
	require.Len(t, summary.Expenses, 1)
	assert.Equal(t, "Lazer", summary.Expenses[0].Name)

	all := SummarizePeriod(model.Period(""), txns, now)
	assert.True(t, testutil.Date(2024, 5, 2).Equal(all.Start))
}
