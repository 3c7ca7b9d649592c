package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Veraticus/mycash/internal/common"
	"github.com/Veraticus/mycash/internal/model"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, kind, amount, date, category, category_id, description, tags, notes`

// CreateTransaction stores txn and assigns its ID.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	return insertTransaction(ctx, s.db, txn, false)
}

// insertTransaction writes txn. With keepID set, a numeric txn.ID is reused so
// restored backups keep their identifiers.
func insertTransaction(ctx context.Context, q queryable, txn *model.Transaction, keepID bool) error {
	tagsJSON, err := encodeTags(txn.Tags)
	if err != nil {
		return err
	}

	var id any
	if keepID {
		if n, ok := explicitID(txn.ID); ok {
			id = n
		}
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO transactions (id, kind, amount, date, category, category_id, description, tags, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		string(txn.Kind),
		txn.Amount.String(),
		txn.Date.Format(model.DateLayout),
		txn.CategoryName,
		nullString(txn.CategoryID),
		txn.Description,
		tagsJSON,
		nullString(txn.Notes),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	newID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get transaction ID: %w", err)
	}
	txn.ID = strconv.FormatInt(newID, 10)
	return nil
}

// explicitID reports the row id a restored transaction asks to keep.
func explicitID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	return n, err == nil && n > 0
}

// UpdateTransaction replaces every stored field of the transaction with txn.ID.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	id, ok := parseID(txn.ID)
	if !ok {
		return fmt.Errorf("transaction %q: %w", txn.ID, common.ErrNotFound)
	}

	tagsJSON, err := encodeTags(txn.Tags)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET kind = ?, amount = ?, date = ?, category = ?, category_id = ?,
		    description = ?, tags = ?, notes = ?
		WHERE id = ?`,
		string(txn.Kind),
		txn.Amount.String(),
		txn.Date.Format(model.DateLayout),
		txn.CategoryName,
		nullString(txn.CategoryID),
		txn.Description,
		tagsJSON,
		nullString(txn.Notes),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("transaction %q: %w", txn.ID, common.ErrNotFound)
	}
	return nil
}

// DeleteTransaction removes the transaction with id. It reports false when nothing
// matched; only I/O problems produce an error.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	n, ok := parseID(id)
	if !ok {
		return false, nil
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, n)
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// GetTransactionByID retrieves a single transaction by ID.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	n, ok := parseID(id)
	if !ok {
		return nil, common.ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, n)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetTransactions returns every transaction ordered newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Warn("failed to close rows", "error", err)
		}
	}()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	slog.Debug("retrieved transactions", "count", len(transactions))
	return transactions, nil
}

// GetTransactionCount returns the total number of transactions.
func (s *SQLiteStorage) GetTransactionCount(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get transaction count: %w", err)
	}

	return count, nil
}

// ClearTransactions deletes every transaction.
func (s *SQLiteStorage) ClearTransactions(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("failed to clear transactions: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		txn         model.Transaction
		id          int64
		kind        string
		amount      string
		date        string
		category    sql.NullString
		categoryID  sql.NullString
		description sql.NullString
		tags        sql.NullString
		notes       sql.NullString
	)

	if err := row.Scan(&id, &kind, &amount, &date, &category, &categoryID, &description, &tags, &notes); err != nil {
		return nil, err
	}

	parsedAmount, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("transaction %d has malformed amount %q: %w", id, amount, err)
	}
	parsedDate, err := model.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("transaction %d has malformed date %q: %w", id, date, err)
	}

	txn.ID = strconv.FormatInt(id, 10)
	txn.Kind = model.Kind(kind)
	txn.Amount = parsedAmount
	txn.Date = parsedDate
	txn.CategoryName = category.String
	txn.CategoryID = categoryID.String
	txn.Description = description.String
	txn.Notes = notes.String

	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &txn.Tags); err != nil {
			// Log but don't fail on JSON parse error
			slog.Warn("Failed to parse tags JSON", "error", err, "json", tags.String)
		}
	}

	return &txn, nil
}

func encodeTags(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode tags: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
