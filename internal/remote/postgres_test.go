package remote

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/mycash/internal/common"
	"github.com/Veraticus/mycash/internal/model"
	"github.com/Veraticus/mycash/internal/service"
	"github.com/Veraticus/mycash/internal/storage"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationsRequireUser(t *testing.T) {
	s := New(nil, "  ", nil)
	ctx := context.Background()
	txn := &model.Transaction{}
	cat := &model.Category{}

	calls := map[string]func() error{
		"CreateTransaction":   func() error { return s.CreateTransaction(ctx, txn) },
		"UpdateTransaction":   func() error { return s.UpdateTransaction(ctx, txn) },
		"DeleteTransaction":   func() error { _, err := s.DeleteTransaction(ctx, "1"); return err },
		"GetTransactionByID":  func() error { _, err := s.GetTransactionByID(ctx, "1"); return err },
		"GetTransactions":     func() error { _, err := s.GetTransactions(ctx); return err },
		"GetTransactionCount": func() error { _, err := s.GetTransactionCount(ctx); return err },
		"ClearTransactions":   func() error { return s.ClearTransactions(ctx) },
		"GetCategories":       func() error { _, err := s.GetCategories(ctx); return err },
		"GetCategoryByID":     func() error { _, err := s.GetCategoryByID(ctx, "1"); return err },
		"CreateCategories":    func() error { return s.CreateCategories(ctx, []model.Category{*cat}) },
		"UpdateCategory":      func() error { return s.UpdateCategory(ctx, cat) },
		"SetCategoryDefault":  func() error { return s.SetCategoryDefault(ctx, "1", true) },
		"DeleteCategory":      func() error { _, err := s.DeleteCategory(ctx, "1"); return err },
		"ClearCategories":     func() error { return s.ClearCategories(ctx) },
		"GetSetting":          func() error { _, _, err := s.GetSetting(ctx, "k"); return err },
		"SetSetting":          func() error { return s.SetSetting(ctx, "k", "v") },
		"DeleteSetting":       func() error { return s.DeleteSetting(ctx, "k") },
		"ReplaceAll":          func() error { return s.ReplaceAll(ctx, nil, nil) },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, call(), common.ErrNotAuthenticated)
		})
	}
	assert.NoError(t, s.Close())
}

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{UserID: "u1"}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	_, err = Open(context.Background(), Config{DSN: "postgres://%zz", UserID: "u1"}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestInsertTransactionQuery(t *testing.T) {
	txn := &model.Transaction{
		Kind:        model.KindExpense,
		Amount:      decimal.RequireFromString("12.5"),
		Date:        time.Date(2024, time.May, 3, 0, 0, 0, 0, time.Local),
		Description: "Mercado",
	}

	query, args, err := insertTransactionQuery("user-1", txn).ToSql()
	require.NoError(t, err)

	assert.NotEmpty(t, txn.ID, "a UUID is assigned")
	assert.Contains(t, query, "INSERT INTO transactions")
	assert.Contains(t, query, "$9")
	assert.Equal(t, []any{txn.ID, "user-1", "Mercado", "12.5", "expense", "2024-05-03", nil, []string{}, nil}, args)

	txn.ID = "fixed"
	_, args, err = insertTransactionQuery("user-1", txn).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "fixed", args[0])
}

func TestUpdateTransactionQuery(t *testing.T) {
	txn := &model.Transaction{
		ID:         "abc",
		Kind:       model.KindIncome,
		Amount:     decimal.NewFromInt(100),
		Date:       time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local),
		CategoryID: "7",
		Tags:       []string{"pix"},
		Notes:      "bônus",
	}

	query, args, err := updateTransactionQuery("user-1", txn).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "UPDATE transactions SET")
	assert.Contains(t, query, "WHERE id = $8 AND user_id = $9")
	assert.Equal(t, []any{"100", "7", "", "bônus", []string{"pix"}, "2024-01-01", "income", "abc", "user-1"}, args)
}

func TestSelectTransactions(t *testing.T) {
	query, args, err := selectTransactions("user-1").Where("t.id = ?", "abc").ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "LEFT JOIN categories c ON c.id = t.category_id AND c.user_id = t.user_id")
	assert.Contains(t, query, "WHERE t.user_id = $1 AND t.id = $2")
	assert.Equal(t, []any{"user-1", "abc"}, args)
}

func TestInsertCategoriesQuery(t *testing.T) {
	limit := decimal.NewFromInt(300)
	query, args, err := insertCategoriesQuery("user-1", []model.Category{
		{ID: "1", Name: "Alimentação", Type: model.KindExpense, Icon: "ShoppingBag", IsDefault: true},
		{ID: "99", Name: "Pets", Type: model.KindExpense, BudgetLimit: &limit},
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "INSERT INTO categories")
	assert.Contains(t, query, "$16")
	require.Len(t, args, 16)
	assert.Equal(t, []any{"1", "user-1", "Alimentação", "expense", nil, "ShoppingBag", true, nil}, args[:8])
	assert.Equal(t, "300", args[15])
}

func TestFallbackCategoryQuery(t *testing.T) {
	query, args, err := fallbackCategoryQuery("user-1", model.KindExpense).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id FROM categories WHERE name = $1 AND user_id = $2 ORDER BY (type = $3) DESC, id LIMIT 1",
		query)
	assert.Equal(t, []any{"Outros", "user-1", "expense"}, args)

	// A transaction that already names its category needs no lookup.
	s := New(nil, "user-1", nil)
	txn := &model.Transaction{Kind: model.KindExpense, CategoryID: "2"}
	row, err := s.withCategory(context.Background(), nil, txn)
	require.NoError(t, err)
	assert.Equal(t, "2", row.CategoryID)
}

func TestSettingsLiveInLocalStore(t *testing.T) {
	ctx := context.Background()
	local, err := storage.Open(ctx, filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)

	s := New(nil, "user-1", local)

	require.NoError(t, s.SetSetting(ctx, service.SettingSavingsGoals, "[]"))
	value, ok, err := s.GetSetting(ctx, service.SettingSavingsGoals)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", value)

	got, ok, err := local.GetSetting(ctx, service.SettingSavingsGoals)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", got)

	require.NoError(t, s.DeleteSetting(ctx, service.SettingSavingsGoals))
	_, ok, err = s.GetSetting(ctx, service.SettingSavingsGoals)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Close())
	_, _, err = local.GetSetting(ctx, service.SettingSavingsGoals)
	assert.Error(t, err, "closing the remote storage closes the local settings")
}

func TestSettingsWithoutLocalStore(t *testing.T) {
	s := New(nil, "user-1", nil)
	_, _, err := s.GetSetting(context.Background(), service.SettingFirstInstall)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestTranslate(t *testing.T) {
	err := translate(&pgconn.PgError{Code: uniqueViolation}, "create categories")
	assert.ErrorIs(t, err, common.ErrDuplicateCategory)

	plain := errors.New("boom")
	err = translate(plain, "query transactions")
	assert.ErrorIs(t, err, plain)
	assert.NotErrorIs(t, err, common.ErrStorageUnavailable)
	assert.Contains(t, err.Error(), "failed to query transactions")
}
