package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/Veraticus/mycash/internal/common"
	"github.com/Veraticus/mycash/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func selectCategories(userID string) squirrel.SelectBuilder {
	return psql.Select("id", "name", "type", "COALESCE(color, '')", "COALESCE(icon, '')", "is_default", "budget_limit::text").
		From("categories").
		Where(squirrel.Eq{"user_id": userID})
}

func insertCategoriesQuery(userID string, cats []model.Category) squirrel.InsertBuilder {
	b := psql.Insert("categories").
		Columns("id", "user_id", "name", "type", "color", "icon", "is_default", "budget_limit")
	for _, cat := range cats {
		b = b.Values(cat.ID, userID, cat.Name, string(cat.Type), nullable(cat.Color), nullable(cat.Icon),
			cat.IsDefault, budgetValue(cat.BudgetLimit))
	}
	return b
}

func budgetValue(limit *decimal.Decimal) any {
	if limit == nil {
		return nil
	}
	return limit.String()
}

// GetCategories returns the user's categories ordered by type then name.
func (s *PostgresStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := s.authenticated(ctx); err != nil {
		return nil, err
	}
	query, args, err := selectCategories(s.userID).OrderBy("type", "lower(name)").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build categories query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "query categories")
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cats = append(cats, *cat)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "iterate categories")
	}
	return cats, nil
}

// GetCategoryByID returns nil when the category does not exist.
func (s *PostgresStorage) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	if err := s.authenticated(ctx); err != nil {
		return nil, err
	}
	query, args, err := selectCategories(s.userID).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build category query: %w", err)
	}

	cat, err := scanCategory(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "get category")
	}
	return cat, nil
}

// CreateCategories inserts all categories in a single statement.
func (s *PostgresStorage) CreateCategories(ctx context.Context, categories []model.Category) error {
	if err := s.authenticated(ctx); err != nil {
		return err
	}
	if len(categories) == 0 {
		return nil
	}
	return exec(ctx, s.pool, insertCategoriesQuery(s.userID, categories), "create categories")
}

// UpdateCategory replaces the stored category with the same ID.
func (s *PostgresStorage) UpdateCategory(ctx context.Context, category *model.Category) error {
	if err := s.authenticated(ctx); err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("category cannot be nil")
	}
	tag, err := execTag(ctx, s.pool, psql.Update("categories").
		SetMap(map[string]any{
			"name":         category.Name,
			"type":         string(category.Type),
			"color":        nullable(category.Color),
			"icon":         nullable(category.Icon),
			"is_default":   category.IsDefault,
			"budget_limit": budgetValue(category.BudgetLimit),
		}).
		Where(squirrel.Eq{"id": category.ID, "user_id": s.userID}), "update category")
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category %s: %w", category.ID, common.ErrNotFound)
	}
	return nil
}

// SetCategoryDefault rewrites only the default flag.
func (s *PostgresStorage) SetCategoryDefault(ctx context.Context, id string, isDefault bool) error {
	if err := s.authenticated(ctx); err != nil {
		return err
	}
	tag, err := execTag(ctx, s.pool, psql.Update("categories").
		Set("is_default", isDefault).
		Where(squirrel.Eq{"id": id, "user_id": s.userID}), "set category default")
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// DeleteCategory removes a category and reports whether it existed.
func (s *PostgresStorage) DeleteCategory(ctx context.Context, id string) (bool, error) {
	if err := s.authenticated(ctx); err != nil {
		return false, err
	}
	tag, err := execTag(ctx, s.pool,
		psql.Delete("categories").Where(squirrel.Eq{"id": id, "user_id": s.userID}),
		"delete category")
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ClearCategories deletes every category of the user.
func (s *PostgresStorage) ClearCategories(ctx context.Context) error {
	if err := s.authenticated(ctx); err != nil {
		return err
	}
	return exec(ctx, s.pool, psql.Delete("categories").Where(squirrel.Eq{"user_id": s.userID}), "clear categories")
}

func scanCategory(row pgx.Row) (*model.Category, error) {
	var (
		cat    model.Category
		kind   string
		budget *string
	)
	if err := row.Scan(&cat.ID, &cat.Name, &kind, &cat.Color, &cat.Icon, &cat.IsDefault, &budget); err != nil {
		return nil, err
	}
	parsedKind, ok := model.ParseKind(kind)
	if !ok {
		return nil, fmt.Errorf("category %s has unknown type %q", cat.ID, kind)
	}
	cat.Type = parsedKind
	if budget != nil {
		limit, err := decimal.NewFromString(*budget)
		if err != nil {
			return nil, fmt.Errorf("category %s has invalid budget_limit: %w", cat.ID, err)
		}
		cat.BudgetLimit = &limit
	}
	return &cat, nil
}
