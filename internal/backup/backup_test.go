package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/mycash/internal/model"
	"github.com/Veraticus/mycash/internal/seed"
	"github.com/Veraticus/mycash/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportTime = time.Date(2024, time.May, 20, 18, 30, 0, 0, time.UTC)

func seededDB(t *testing.T) *testutil.TestDB {
	t.Helper()
	db := testutil.SetupTestDB(t)
	seed.New(db.Storage, seed.WithClock(func() time.Time { return exportTime })).Run(context.Background())
	return db
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "mycash-backup-2024-05-20.json", FileName(exportTime))
}

func TestExport(t *testing.T) {
	db := seededDB(t)
	var buf bytes.Buffer

	require.NoError(t, New(db.Storage, WithClock(func() time.Time { return exportTime })).Export(context.Background(), &buf))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "1.0", doc["version"])
	assert.Equal(t, "2024-05-20T18:30:00.000Z", doc["exportDate"])

	txns, ok := doc["transacoes"].([]any)
	require.True(t, ok)
	require.Len(t, txns, 4)
	first := txns[0].(map[string]any)
	assert.Equal(t, "entrada", first["tipo"])
	assert.Equal(t, float64(5000), first["valor"])
	assert.Equal(t, "Salário", first["categoria"])
	assert.Equal(t, "Salário mensal", first["descricao"])
	assert.IsType(t, float64(0), first["id"])

	cats, ok := doc["categorias"].([]any)
	require.True(t, ok)
	assert.Len(t, cats, 10)
}

func TestExportImportRoundTrip(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	svc := New(db.Storage)

	before, err := db.Storage.GetTransactions(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, &buf))
	require.NoError(t, seed.New(db.Storage).ResetAll(ctx))

	ok, err := svc.Import(ctx, &buf)
	require.NoError(t, err)
	require.True(t, ok)

	after, err := db.Storage.GetTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].Kind, after[i].Kind)
		assert.True(t, before[i].Amount.Equal(after[i].Amount))
		assert.True(t, before[i].Date.Equal(after[i].Date))
		assert.Equal(t, before[i].CategoryName, after[i].CategoryName)
		assert.Equal(t, before[i].CategoryID, after[i].CategoryID)
	}
	assert.Len(t, db.MustCategories(), 10)
}

func TestImport_Rejected(t *testing.T) {
	tests := map[string]string{
		"not json":               `{"transacoes": [`,
		"missing transacoes":     `{"categorias": []}`,
		"transacoes not array":   `{"transacoes": {"id": 1}}`,
		"categorias not array":   `{"transacoes": [], "categorias": "x"}`,
		"bad tipo":               `{"transacoes": [{"tipo": "transfer", "valor": 1, "data": "2024-01-01"}]}`,
		"bad valor":              `{"transacoes": [{"tipo": "entrada", "valor": "abc", "data": "2024-01-01"}]}`,
		"negative valor":         `{"transacoes": [{"tipo": "entrada", "valor": -1, "data": "2024-01-01"}]}`,
		"bad date":               `{"transacoes": [{"tipo": "entrada", "valor": 1, "data": "ontem"}]}`,
		"duplicate categories":   `{"transacoes": [], "categorias": [{"id": "a", "name": "Pets", "type": "expense"}, {"id": "b", "name": "pets", "type": "expense"}]}`,
		"category without type":  `{"transacoes": [], "categorias": [{"id": "a", "name": "Pets"}]}`,
		"top level is an array":  `[]`,
		"id of the wrong shape":  `{"transacoes": [{"id": {}, "tipo": "entrada", "valor": 1, "data": "2024-01-01"}]}`,
		"category without name":  `{"transacoes": [], "categorias": [{"id": "a", "name": " ", "type": "income"}]}`,
		"empty transacoes value": `{"transacoes": null}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			db := seededDB(t)
			ok, err := New(db.Storage).Import(context.Background(), strings.NewReader(body))
			require.NoError(t, err)
			assert.False(t, ok)

			assert.Equal(t, 4, db.MustCount(), "store must be untouched")
			assert.Len(t, db.MustCategories(), 10)
		})
	}
}

func TestImport_WithoutCategoriesSeedsDefaults(t *testing.T) {
	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{EmptyCategories: true})
	ctx := context.Background()

	// Shape written by the first release: numeric ids, ISO timestamps, no categories.
	body := `{
		"transacoes": [
			{"id": 1, "tipo": "entrada", "valor": 5000, "data": "2024-05-20T12:00:00.000Z", "categoria": "Salário", "descricao": "Salário mensal"},
			{"id": 2, "tipo": "saida", "valor": 25.5, "data": "2024-05-18T12:00:00.000Z", "categoria": "Transporte", "descricao": "Uber"}
		],
		"exportDate": "2024-05-20T12:00:00.000Z",
		"version": "1.0"
	}`

	ok, err := New(db.Storage).Import(ctx, strings.NewReader(body))
	require.NoError(t, err)
	require.True(t, ok)

	cats := db.MustCategories()
	require.Len(t, cats, 10)
	for _, cat := range cats {
		assert.True(t, cat.IsDefault)
	}

	txns, err := db.Storage.GetTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "1", txns[0].ID)
	assert.Equal(t, "7", txns[0].CategoryID)
	assert.Equal(t, "25.5", txns[1].Amount.String())
	assert.Equal(t, model.KindExpense, txns[1].Kind)
	assert.Equal(t, "2", txns[1].CategoryID)
}

func TestImport_NormalizesCategories(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	body := `{
		"transacoes": [
			{"id": "5", "tipo": "saida", "valor": "10", "data": "2024-01-01", "categoria": "Pets"},
			{"id": "5", "tipo": "saida", "valor": "20", "data": "2024-01-02", "categoria": "Pets"}
		],
		"categorias": [
			{"id": "p", "name": "Pets", "type": "expense", "is_default": true, "budget_limit": 300},
			{"name": "Salário", "type": "income", "is_default": false}
		]
	}`

	ok, err := New(db.Storage).Import(ctx, strings.NewReader(body))
	require.NoError(t, err)
	require.True(t, ok)

	pets, err := db.Storage.GetCategoryByID(ctx, "p")
	require.NoError(t, err)
	require.NotNil(t, pets)
	assert.False(t, pets.IsDefault)
	require.NotNil(t, pets.BudgetLimit)
	assert.Equal(t, "300", pets.BudgetLimit.String())

	salario, err := db.Storage.GetCategoryByID(ctx, "imported-2")
	require.NoError(t, err)
	require.NotNil(t, salario)
	assert.True(t, salario.IsDefault)

	txns, err := db.Storage.GetTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.NotEqual(t, txns[0].ID, txns[1].ID)
	assert.Equal(t, "p", txns[0].CategoryID)
}

func TestImport_MixedIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	// The string id comes first; its generated id must not take 1 or 2.
	body := `{"transacoes": [
		{"id": "abc", "tipo": "saida", "valor": 10, "data": "2024-01-03", "categoria": "Lazer"},
		{"id": 1, "tipo": "entrada", "valor": 20, "data": "2024-01-02", "categoria": "Salário"},
		{"id": 2, "tipo": "saida", "valor": 30, "data": "2024-01-01", "categoria": "Lazer"}
	]}`

	ok, err := New(db.Storage).Import(ctx, strings.NewReader(body))
	require.NoError(t, err)
	require.True(t, ok)

	txns, err := db.Storage.GetTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, "3", txns[0].ID)
	assert.Equal(t, "1", txns[1].ID)
	assert.Equal(t, "2", txns[2].ID)
}

func TestImport_StorageFailure(t *testing.T) {
	db := seededDB(t)
	failing := &testutil.FailingStore{Storage: db.Storage, Fail: map[string]bool{"ReplaceAll": true}}

	ok, err := New(failing).Import(context.Background(), strings.NewReader(`{"transacoes": []}`))
	require.ErrorIs(t, err, testutil.ErrInjected)
	assert.False(t, ok)
	assert.Equal(t, 4, db.MustCount())
}

func TestID_JSON(t *testing.T) {
	var ids []ID
	require.NoError(t, json.Unmarshal([]byte(`[1, "abc", null, 42.0]`), &ids))
	assert.Equal(t, []ID{"1", "abc", "", "42.0"}, ids)

	out, err := json.Marshal([]ID{"7", "uuid-x", "-3"})
	require.NoError(t, err)
	assert.JSONEq(t, `[7, "uuid-x", -3]`, string(out))

	// Ids that would not survive a trip through a number stay strings.
	padded := []ID{"007", "+5", "-0"}
	out, err = json.Marshal(padded)
	require.NoError(t, err)
	assert.JSONEq(t, `["007", "+5", "-0"]`, string(out))

	var back []ID
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, padded, back)
}
