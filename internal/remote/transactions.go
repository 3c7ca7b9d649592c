package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/Veraticus/mycash/internal/common"
	"github.com/Veraticus/mycash/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// transactionColumns is the read shape: the write shape plus the joined category name.
var transactionColumns = []string{
	"t.id",
	"t.type",
	"t.amount::text",
	"t.transaction_date::text",
	"COALESCE(c.name, '')",
	"COALESCE(t.category_id, '')",
	"COALESCE(t.description, '')",
	"COALESCE(t.tags, '{}')",
	"COALESCE(t.notes, '')",
}

func selectTransactions(userID string) squirrel.SelectBuilder {
	return psql.Select(transactionColumns...).
		From("transactions t").
		LeftJoin("categories c ON c.id = t.category_id AND c.user_id = t.user_id").
		Where(squirrel.Eq{"t.user_id": userID})
}

func insertTransactionQuery(userID string, txn *model.Transaction) squirrel.InsertBuilder {
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	return psql.Insert("transactions").
		Columns("id", "user_id", "description", "amount", "type", "transaction_date", "category_id", "tags", "notes").
		Values(txn.ID, userID, txn.Description, txn.Amount.String(), string(txn.Kind),
			txn.Date.Format(model.DateLayout), nullable(txn.CategoryID), tagsValue(txn.Tags), nullable(txn.Notes))
}

func updateTransactionQuery(userID string, txn *model.Transaction) squirrel.UpdateBuilder {
	return psql.Update("transactions").
		SetMap(map[string]any{
			"description":      txn.Description,
			"amount":           txn.Amount.String(),
			"type":             string(txn.Kind),
			"transaction_date": txn.Date.Format(model.DateLayout),
			"category_id":      nullable(txn.CategoryID),
			"tags":             tagsValue(txn.Tags),
			"notes":            nullable(txn.Notes),
		}).
		Where(squirrel.Eq{"id": txn.ID, "user_id": userID})
}

// fallbackCategoryQuery finds the user's catch-all category, preferring the one
// of the transaction's type.
func fallbackCategoryQuery(userID string, kind model.Kind) squirrel.SelectBuilder {
	return psql.Select("id").From("categories").
		Where(squirrel.Eq{"user_id": userID, "name": model.FallbackCategoryName}).
		OrderByClause("(type = ?) DESC", string(kind)).
		OrderBy("id").
		Limit(1)
}

// withCategory returns txn with an empty category replaced by the fallback
// category's id. The hosted table requires a category on every transaction.
func (s *PostgresStorage) withCategory(ctx context.Context, q querier, txn *model.Transaction) (model.Transaction, error) {
	row := *txn
	if row.CategoryID != "" {
		return row, nil
	}

	query, args, err := fallbackCategoryQuery(s.userID, row.Kind).ToSql()
	if err != nil {
		return row, fmt.Errorf("failed to build fallback category query: %w", err)
	}
	err = q.QueryRow(ctx, query, args...).Scan(&row.CategoryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return row, common.NewValidationError("category",
			fmt.Sprintf("no category given and no %q category exists", model.FallbackCategoryName))
	}
	if err != nil {
		return row, translate(err, "find fallback category")
	}
	return row, nil
}

// insertTransaction writes txn with its category resolved and copies the
// assigned ID back.
func (s *PostgresStorage) insertTransaction(ctx context.Context, q querier, txn *model.Transaction, op string) error {
	row, err := s.withCategory(ctx, q, txn)
	if err != nil {
		return err
	}
	if err := exec(ctx, q, insertTransactionQuery(s.userID, &row), op); err != nil {
		return err
	}
	txn.ID = row.ID
	return nil
}

func tagsValue(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// CreateTransaction inserts txn, assigning a UUID when it has no ID.
func (s *PostgresStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := s.authenticated(ctx); err != nil {
		return err
	}
	if txn == nil {
		return fmt.Errorf("transaction cannot be nil")
	}
	return s.insertTransaction(ctx, s.pool, txn, "create transaction")
}

// UpdateTransaction replaces the stored row with the same ID.
func (s *PostgresStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := s.authenticated(ctx); err != nil {
		return err
	}
	if txn == nil {
		return fmt.Errorf("transaction cannot be nil")
	}
	row, err := s.withCategory(ctx, s.pool, txn)
	if err != nil {
		return err
	}
	tag, err := execTag(ctx, s.pool, updateTransactionQuery(s.userID, &row), "update transaction")
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s: %w", txn.ID, common.ErrNotFound)
	}
	return nil
}

// DeleteTransaction removes a transaction and reports whether it existed.
func (s *PostgresStorage) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	if err := s.authenticated(ctx); err != nil {
		return false, err
	}
	tag, err := execTag(ctx, s.pool,
		psql.Delete("transactions").Where(squirrel.Eq{"id": id, "user_id": s.userID}),
		"delete transaction")
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GetTransactionByID returns common.ErrNotFound when the row is missing.
func (s *PostgresStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := s.authenticated(ctx); err != nil {
		return nil, err
	}
	query, args, err := selectTransactions(s.userID).Where(squirrel.Eq{"t.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction query: %w", err)
	}

	txn, err := scanTransaction(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, translate(err, "get transaction")
	}
	return txn, nil
}

// GetTransactions returns the user's transactions, newest first.
func (s *PostgresStorage) GetTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := s.authenticated(ctx); err != nil {
		return nil, err
	}
	query, args, err := selectTransactions(s.userID).
		OrderBy("t.transaction_date DESC", "t.created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build transactions query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "query transactions")
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "iterate transactions")
	}
	return txns, nil
}

// GetTransactionCount returns the number of the user's transactions.
func (s *PostgresStorage) GetTransactionCount(ctx context.Context) (int, error) {
	if err := s.authenticated(ctx); err != nil {
		return 0, err
	}
	query, args, err := psql.Select("COUNT(*)").From("transactions").
		Where(squirrel.Eq{"user_id": s.userID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var count int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, translate(err, "count transactions")
	}
	return count, nil
}

// ClearTransactions deletes every transaction of the user.
func (s *PostgresStorage) ClearTransactions(ctx context.Context) error {
	if err := s.authenticated(ctx); err != nil {
		return err
	}
	return exec(ctx, s.pool, psql.Delete("transactions").Where(squirrel.Eq{"user_id": s.userID}), "clear transactions")
}

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var (
		txn    model.Transaction
		kind   string
		amount string
		date   string
	)
	if err := row.Scan(&txn.ID, &kind, &amount, &date, &txn.CategoryName, &txn.CategoryID,
		&txn.Description, &txn.Tags, &txn.Notes); err != nil {
		return nil, err
	}

	parsedKind, ok := model.ParseKind(kind)
	if !ok {
		return nil, fmt.Errorf("transaction %s has unknown type %q", txn.ID, kind)
	}
	txn.Kind = parsedKind

	var err error
	if txn.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("transaction %s has invalid amount: %w", txn.ID, err)
	}
	if txn.Date, err = model.ParseDate(date); err != nil {
		return nil, fmt.Errorf("transaction %s has invalid date: %w", txn.ID, err)
	}
	if len(txn.Tags) == 0 {
		txn.Tags = nil
	}
	return &txn, nil
}
