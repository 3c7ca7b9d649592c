package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/mycash/internal/common"
	"github.com/Veraticus/mycash/internal/model"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

const categoryColumns = `id, name, type, color, icon, is_default, budget_limit`

// GetCategories returns all categories ordered by type, then name.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		ORDER BY type, name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Warn("failed to close rows", "error", err)
		}
	}()

	var categories []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategoryByID returns a category by its ID, or nil when it does not exist.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Category not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return cat, nil
}

// CreateCategories inserts categories atomically. A clash with an existing
// (name, type) pair fails the whole batch with common.ErrDuplicateCategory.
func (s *SQLiteStorage) CreateCategories(ctx context.Context, categories []model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for i := range categories {
		if err := validateCategory(&categories[i]); err != nil {
			return fmt.Errorf("category at index %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertCategories(ctx, tx, categories); err != nil {
		return err
	}
	return tx.Commit()
}

func insertCategories(ctx context.Context, q queryable, categories []model.Category) error {
	for _, cat := range categories {
		_, err := q.ExecContext(ctx, `
			INSERT INTO categories (id, name, type, color, icon, is_default, budget_limit)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			cat.ID,
			cat.Name,
			string(cat.Type),
			nullString(cat.Color),
			nullString(cat.Icon),
			cat.IsDefault,
			budgetValue(cat.BudgetLimit),
		)
		if err != nil {
			return fmt.Errorf("failed to insert category %q: %w", cat.Name, translateConstraint(err))
		}
	}
	return nil
}

// UpdateCategory overwrites the editable fields of the category with category.ID.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET name = ?, type = ?, color = ?, icon = ?, is_default = ?, budget_limit = ?
		WHERE id = ?`,
		category.Name,
		string(category.Type),
		nullString(category.Color),
		nullString(category.Icon),
		category.IsDefault,
		budgetValue(category.BudgetLimit),
		category.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", translateConstraint(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("category %q: %w", category.ID, common.ErrNotFound)
	}
	return nil
}

// SetCategoryDefault flips only the default flag.
func (s *SQLiteStorage) SetCategoryDefault(ctx context.Context, id string, isDefault bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE categories SET is_default = ? WHERE id = ?`, isDefault, id)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("category %q: %w", id, common.ErrNotFound)
	}
	return nil
}

// DeleteCategory removes a category and reports whether it existed.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(id, "id"); err != nil {
		return false, err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete category: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// ClearCategories deletes every category.
func (s *SQLiteStorage) ClearCategories(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}
	return nil
}

func scanCategory(row rowScanner) (*model.Category, error) {
	var (
		cat    model.Category
		kind   string
		color  sql.NullString
		icon   sql.NullString
		budget sql.NullString
	)

	if err := row.Scan(&cat.ID, &cat.Name, &kind, &color, &icon, &cat.IsDefault, &budget); err != nil {
		return nil, err
	}

	cat.Type = model.Kind(kind)
	cat.Color = color.String
	cat.Icon = icon.String
	if budget.Valid && budget.String != "" {
		limit, err := decimal.NewFromString(budget.String)
		if err != nil {
			slog.Warn("Ignoring malformed budget limit", "category", cat.ID, "value", budget.String)
		} else {
			cat.BudgetLimit = &limit
		}
	}
	return &cat, nil
}

func budgetValue(limit *decimal.Decimal) sql.NullString {
	if limit == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: limit.String(), Valid: true}
}

// translateConstraint maps unique-index violations onto common.ErrDuplicateCategory.
func translateConstraint(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return fmt.Errorf("%w: %w", common.ErrDuplicateCategory, err)
	}
	return err
}
