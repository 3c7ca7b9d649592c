package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/mycash/internal/common"
	"github.com/Veraticus/mycash/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func newTxn(kind model.Kind, amount int64, date time.Time, category string) *model.Transaction {
	return &model.Transaction{
		Kind:         kind,
		Amount:       decimal.NewFromInt(amount),
		Date:         date,
		CategoryName: category,
		Description:  category + " entry",
	}
}

func TestNewSQLiteStorage_Unavailable(t *testing.T) {
	// A regular file where the parent directory should be.
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	_, err := NewSQLiteStorage(filepath.Join(blocker, "db.sqlite"))
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
}

func TestSQLiteStorage_TransactionCRUD(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	txn := newTxn(model.KindExpense, 350, day(2024, 5, 10), "Alimentação")
	txn.Tags = []string{"mercado", "casa"}
	txn.Notes = "semanal"
	require.NoError(t, store.CreateTransaction(ctx, txn))
	require.NotEmpty(t, txn.ID)

	got, err := store.GetTransactionByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.KindExpense, got.Kind)
	assert.True(t, decimal.NewFromInt(350).Equal(got.Amount))
	assert.True(t, day(2024, 5, 10).Equal(got.Date))
	assert.Equal(t, "Alimentação", got.CategoryName)
	assert.Equal(t, []string{"mercado", "casa"}, got.Tags)
	assert.Equal(t, "semanal", got.Notes)

	got.Amount = decimal.RequireFromString("12.34")
	got.Kind = model.KindIncome
	require.NoError(t, store.UpdateTransaction(ctx, got))

	updated, err := store.GetTransactionByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "12.34", updated.Amount.String())
	assert.Equal(t, model.KindIncome, updated.Kind)

	deleted, err := store.DeleteTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.GetTransactionByID(ctx, txn.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStorage_UpdateMissingTransaction(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	txn := newTxn(model.KindExpense, 10, day(2024, 1, 1), "Lazer")
	txn.ID = "999"
	assert.ErrorIs(t, store.UpdateTransaction(ctx, txn), common.ErrNotFound)

	txn.ID = "not-a-number"
	assert.ErrorIs(t, store.UpdateTransaction(ctx, txn), common.ErrNotFound)
}

func TestSQLiteStorage_GetTransactionsNewestFirst(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	for _, d := range []time.Time{day(2024, 1, 5), day(2024, 3, 1), day(2024, 2, 10)} {
		require.NoError(t, store.CreateTransaction(ctx, newTxn(model.KindExpense, 1, d, "Lazer")))
	}

	txns, err := store.GetTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.True(t, txns[0].Date.Equal(day(2024, 3, 1)))
	assert.True(t, txns[1].Date.Equal(day(2024, 2, 10)))
	assert.True(t, txns[2].Date.Equal(day(2024, 1, 5)))

	count, err := store.GetTransactionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, store.ClearTransactions(ctx))
	count, err = store.GetTransactionCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSQLiteStorage_CategoryCRUD(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	cats, err := store.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 10, "schema upgrade seeds the defaults")

	limit := decimal.NewFromInt(500)
	custom := model.Category{ID: "c1", Name: "Pets", Type: model.KindExpense, Color: "#ff0000", BudgetLimit: &limit}
	require.NoError(t, store.CreateCategories(ctx, []model.Category{custom}))

	got, err := store.GetCategoryByID(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Pets", got.Name)
	assert.Equal(t, "#ff0000", got.Color)
	require.NotNil(t, got.BudgetLimit)
	assert.True(t, limit.Equal(*got.BudgetLimit))
	assert.False(t, got.IsDefault)

	got.Name = "Animais"
	got.BudgetLimit = nil
	require.NoError(t, store.UpdateCategory(ctx, got))
	got, err = store.GetCategoryByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Animais", got.Name)
	assert.Nil(t, got.BudgetLimit)

	require.NoError(t, store.SetCategoryDefault(ctx, "c1", true))
	got, err = store.GetCategoryByID(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, got.IsDefault)

	deleted, err := store.DeleteCategory(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, deleted)

	missing, err := store.GetCategoryByID(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	deleted, err = store.DeleteCategory(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, deleted)

	assert.ErrorIs(t, store.SetCategoryDefault(ctx, "c1", true), common.ErrNotFound)
}

func TestSQLiteStorage_CategoryUniqueness(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	// Same name, different case, same type.
	err := store.CreateCategories(ctx, []model.Category{{ID: "x", Name: "alimentação", Type: model.KindExpense}})
	assert.ErrorIs(t, err, common.ErrDuplicateCategory)

	// Same name, other type is fine.
	require.NoError(t, store.CreateCategories(ctx, []model.Category{{ID: "y", Name: "Alimentação", Type: model.KindIncome}}))

	// Renaming into an existing pair is rejected.
	cat, err := store.GetCategoryByID(ctx, "2")
	require.NoError(t, err)
	cat.Name = "MORADIA"
	assert.ErrorIs(t, store.UpdateCategory(ctx, cat), common.ErrDuplicateCategory)

	// A failing batch inserts nothing.
	err = store.CreateCategories(ctx, []model.Category{
		{ID: "z1", Name: "Viagem", Type: model.KindExpense},
		{ID: "z2", Name: "viagem", Type: model.KindExpense},
	})
	assert.ErrorIs(t, err, common.ErrDuplicateCategory)
	missing, err := store.GetCategoryByID(ctx, "z1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteStorage_Settings(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, ok, err := store.GetSetting(ctx, "flag")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetSetting(ctx, "flag", "true"))
	require.NoError(t, store.SetSetting(ctx, "flag", "false"))

	value, ok, err := store.GetSetting(ctx, "flag")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "false", value)

	require.NoError(t, store.DeleteSetting(ctx, "flag"))
	require.NoError(t, store.DeleteSetting(ctx, "flag"))
	_, ok, err = store.GetSetting(ctx, "flag")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStorage_ReplaceAll(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTransaction(ctx, newTxn(model.KindExpense, 5, day(2024, 1, 1), "Lazer")))

	restored := []model.Transaction{
		*newTxn(model.KindIncome, 100, day(2024, 4, 1), "Salário"),
		*newTxn(model.KindExpense, 40, day(2024, 4, 2), "Pets"),
	}
	restored[0].ID = "42"
	restored[1].ID = "abc"
	cats := []model.Category{
		{ID: "7", Name: "Salário", Type: model.KindIncome, IsDefault: true},
		{ID: "p", Name: "Pets", Type: model.KindExpense},
	}

	require.NoError(t, store.ReplaceAll(ctx, restored, cats))

	txns, err := store.GetTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "Pets", txns[0].CategoryName)
	assert.NotEqual(t, "abc", txns[0].ID)
	assert.Equal(t, "42", txns[1].ID)

	gotCats, err := store.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, gotCats, 2)
}

func TestSQLiteStorage_ReplaceAllClaimedIDs(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	restored := []model.Transaction{
		*newTxn(model.KindExpense, 1, day(2024, 4, 3), "Lazer"),
		*newTxn(model.KindExpense, 2, day(2024, 4, 2), "Lazer"),
		*newTxn(model.KindExpense, 3, day(2024, 4, 1), "Lazer"),
	}
	restored[0].ID = ""
	restored[1].ID = "1"
	restored[2].ID = "01"

	require.NoError(t, store.ReplaceAll(ctx, restored, model.DefaultCategories()))

	txns, err := store.GetTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	ids := map[string]string{}
	for _, txn := range txns {
		ids[txn.Amount.String()] = txn.ID
	}
	assert.Equal(t, "1", ids["2"])
	assert.NotEqual(t, "1", ids["1"])
	assert.NotEqual(t, "1", ids["3"])
	assert.NotEqual(t, ids["1"], ids["3"])
}

func TestSQLiteStorage_ReplaceAllRollsBack(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTransaction(ctx, newTxn(model.KindExpense, 5, day(2024, 1, 1), "Lazer")))

	dupes := []model.Category{
		{ID: "a", Name: "Pets", Type: model.KindExpense},
		{ID: "b", Name: "PETS", Type: model.KindExpense},
	}
	err := store.ReplaceAll(ctx, nil, dupes)
	require.ErrorIs(t, err, common.ErrDuplicateCategory)

	count, err := store.GetTransactionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	cats, err := store.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 10)
}
