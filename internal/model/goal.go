package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// SavingsGoal is a "Cofrinho" target tracked outside the transaction ledger.
type SavingsGoal struct {
	DueDate       time.Time       `json:"dataLimite"`
	TargetAmount  decimal.Decimal `json:"valorObjetivo"`
	CurrentAmount decimal.Decimal `json:"valorAtual"`
	ID            string          `json:"id"`
	Name          string          `json:"nome"`
	Description   string          `json:"descricao,omitempty"`
	Color         string          `json:"cor"`
	Icon          string          `json:"icone"`
}

// Default presentation values for new goals.
const (
	DefaultGoalColor = "#3B82F6"
	DefaultGoalIcon  = "PiggyBank"
)

// Clamp forces CurrentAmount into [0, TargetAmount].
func (g *SavingsGoal) Clamp() {
	if g.CurrentAmount.IsNegative() {
		g.CurrentAmount = decimal.Zero
	}
	if g.CurrentAmount.GreaterThan(g.TargetAmount) {
		g.CurrentAmount = g.TargetAmount
	}
}

// Contribute adds amount, capped at the target.
func (g *SavingsGoal) Contribute(amount decimal.Decimal) {
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	g.Clamp()
}

// Withdraw removes amount, floored at zero.
func (g *SavingsGoal) Withdraw(amount decimal.Decimal) {
	g.CurrentAmount = g.CurrentAmount.Sub(amount)
	g.Clamp()
}

// Progress returns completion as a percentage in [0, 100].
func (g SavingsGoal) Progress() float64 {
	if !g.TargetAmount.IsPositive() {
		return 0
	}
	pct, _ := g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).Float64()
	return math.Min(pct, 100)
}

// Reached reports whether the target has been hit.
func (g SavingsGoal) Reached() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// DaysRemaining returns whole days until the due date, rounding up. Negative values
// mean the goal is overdue.
func (g SavingsGoal) DaysRemaining(now time.Time) int {
	diff := g.DueDate.Sub(now)
	return int(math.Ceil(diff.Hours() / 24))
}

// MarshalJSON writes the due date as a calendar date and amounts as plain numbers.
func (g SavingsGoal) MarshalJSON() ([]byte, error) {
	type alias SavingsGoal
	return json.Marshal(struct {
		alias
		DueDate       string      `json:"dataLimite"`
		TargetAmount  json.Number `json:"valorObjetivo"`
		CurrentAmount json.Number `json:"valorAtual"`
	}{
		alias:         alias(g),
		DueDate:       g.DueDate.Format(DateLayout),
		TargetAmount:  json.Number(g.TargetAmount.String()),
		CurrentAmount: json.Number(g.CurrentAmount.String()),
	})
}

// UnmarshalJSON accepts a calendar date or a full timestamp for the due date.
func (g *SavingsGoal) UnmarshalJSON(data []byte) error {
	type alias SavingsGoal
	aux := struct {
		*alias
		DueDate string `json:"dataLimite"`
	}{alias: (*alias)(g)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.DueDate == "" {
		return nil
	}
	raw := aux.DueDate
	if len(raw) > len(DateLayout) {
		raw = raw[:len(DateLayout)]
	}
	due, err := ParseDate(raw)
	if err != nil {
		return fmt.Errorf("invalid dataLimite %q: %w", aux.DueDate, err)
	}
	g.DueDate = due
	return nil
}
