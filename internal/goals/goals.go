// Package goals keeps savings goals as a JSON document in the settings store.
package goals

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/Veraticus/mycash/internal/common"
	"github.com/Veraticus/mycash/internal/model"
	"github.com/Veraticus/mycash/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Input carries the user-editable goal fields. Amounts and the date are strings as
// typed; empty Color and Icon fall back to the defaults.
type Input struct {
	Name         string
	TargetAmount string
	DueDate      string
	Description  string
	Color        string
	Icon         string
}

// Store reads and writes the goal list.
type Store struct {
	settings service.SettingsStore
}

// NewStore creates a Store over settings.
func NewStore(settings service.SettingsStore) *Store {
	return &Store{settings: settings}
}

// List returns every goal in creation order.
func (s *Store) List(ctx context.Context) ([]model.SavingsGoal, error) {
	raw, ok, err := s.settings.GetSetting(ctx, service.SettingSavingsGoals)
	if err != nil {
		return nil, fmt.Errorf("failed to read savings goals: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var goals []model.SavingsGoal
	if err := json.Unmarshal([]byte(raw), &goals); err != nil {
		return nil, fmt.Errorf("failed to decode savings goals: %w", err)
	}
	for i := range goals {
		goals[i].Clamp()
	}
	return goals, nil
}

// Get returns the goal with id.
func (s *Store) Get(ctx context.Context, id string) (model.SavingsGoal, error) {
	goals, err := s.List(ctx)
	if err != nil {
		return model.SavingsGoal{}, err
	}
	i := indexOf(goals, id)
	if i < 0 {
		return model.SavingsGoal{}, fmt.Errorf("goal %q: %w", id, common.ErrNotFound)
	}
	return goals[i], nil
}

// Create adds a goal with nothing saved yet.
func (s *Store) Create(ctx context.Context, in Input) (model.SavingsGoal, error) {
	goal, err := parseInput(in)
	if err != nil {
		return model.SavingsGoal{}, err
	}

	goals, err := s.List(ctx)
	if err != nil {
		return model.SavingsGoal{}, err
	}

	goal.ID = uuid.NewString()
	goal.CurrentAmount = decimal.Zero
	goals = append(goals, goal)
	if err := s.save(ctx, goals); err != nil {
		return model.SavingsGoal{}, err
	}
	return goal, nil
}

// Update replaces the editable fields of the goal with id. The saved amount is kept
// but clamped again against a lowered target.
func (s *Store) Update(ctx context.Context, id string, in Input) (model.SavingsGoal, error) {
	edited, err := parseInput(in)
	if err != nil {
		return model.SavingsGoal{}, err
	}

	return s.modify(ctx, id, func(goal *model.SavingsGoal) {
		current := goal.CurrentAmount
		*goal = edited
		goal.ID = id
		goal.CurrentAmount = current
	})
}

// Delete removes the goal with id and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	goals, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	i := indexOf(goals, id)
	if i < 0 {
		return false, nil
	}
	if err := s.save(ctx, slices.Delete(goals, i, i+1)); err != nil {
		return false, err
	}
	return true, nil
}

// Contribute adds amount to the goal, stopping at its target.
func (s *Store) Contribute(ctx context.Context, id, amount string) (model.SavingsGoal, error) {
	value, err := parsePositive(amount)
	if err != nil {
		return model.SavingsGoal{}, err
	}
	return s.modify(ctx, id, func(goal *model.SavingsGoal) {
		goal.Contribute(value)
	})
}

// Withdraw removes amount from the goal, stopping at zero.
func (s *Store) Withdraw(ctx context.Context, id, amount string) (model.SavingsGoal, error) {
	value, err := parsePositive(amount)
	if err != nil {
		return model.SavingsGoal{}, err
	}
	return s.modify(ctx, id, func(goal *model.SavingsGoal) {
		goal.Withdraw(value)
	})
}

// Clear drops every goal.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.settings.DeleteSetting(ctx, service.SettingSavingsGoals); err != nil {
		return fmt.Errorf("failed to clear savings goals: %w", err)
	}
	return nil
}

// TotalSaved sums the saved amount of every goal.
func TotalSaved(goals []model.SavingsGoal) decimal.Decimal {
	total := decimal.Zero
	for _, goal := range goals {
		total = total.Add(goal.CurrentAmount)
	}
	return total
}

// TotalSavings is the ledger balance shown as overall savings, never below zero.
func TotalSavings(balance decimal.Decimal) decimal.Decimal {
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

func (s *Store) modify(ctx context.Context, id string, fn func(*model.SavingsGoal)) (model.SavingsGoal, error) {
	goals, err := s.List(ctx)
	if err != nil {
		return model.SavingsGoal{}, err
	}
	i := indexOf(goals, id)
	if i < 0 {
		return model.SavingsGoal{}, fmt.Errorf("goal %q: %w", id, common.ErrNotFound)
	}

	fn(&goals[i])
	goals[i].Clamp()
	if err := s.save(ctx, goals); err != nil {
		return model.SavingsGoal{}, err
	}
	return goals[i], nil
}

func (s *Store) save(ctx context.Context, goals []model.SavingsGoal) error {
	if goals == nil {
		goals = []model.SavingsGoal{}
	}
	data, err := json.Marshal(goals)
	if err != nil {
		return fmt.Errorf("failed to encode savings goals: %w", err)
	}
	if err := s.settings.SetSetting(ctx, service.SettingSavingsGoals, string(data)); err != nil {
		return fmt.Errorf("failed to save savings goals: %w", err)
	}
	return nil
}

func indexOf(goals []model.SavingsGoal, id string) int {
	return slices.IndexFunc(goals, func(g model.SavingsGoal) bool { return g.ID == id })
}

func parseInput(in Input) (model.SavingsGoal, error) {
	var goal model.SavingsGoal

	goal.Name = strings.TrimSpace(in.Name)
	if goal.Name == "" {
		return goal, common.NewValidationError("nome", "required")
	}

	target, err := parsePositive(in.TargetAmount)
	if err != nil {
		return goal, common.NewValidationError("valorObjetivo", "must be a positive number")
	}
	goal.TargetAmount = target

	if strings.TrimSpace(in.DueDate) == "" {
		return goal, common.NewValidationError("dataLimite", "required")
	}
	due, err := model.ParseDate(in.DueDate)
	if err != nil {
		return goal, common.NewValidationError("dataLimite", "expected YYYY-MM-DD")
	}
	goal.DueDate = due

	goal.Description = strings.TrimSpace(in.Description)
	goal.Color = strings.TrimSpace(in.Color)
	if goal.Color == "" {
		goal.Color = model.DefaultGoalColor
	}
	goal.Icon = strings.TrimSpace(in.Icon)
	if goal.Icon == "" {
		goal.Icon = model.DefaultGoalIcon
	}
	return goal, nil
}

func parsePositive(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	value, err := decimal.NewFromString(s)
	if err != nil || !value.IsPositive() {
		return decimal.Zero, common.NewValidationError("amount", "must be a positive number")
	}
	return value, nil
}
