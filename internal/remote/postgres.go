// Package remote implements the storage port against a hosted Postgres database
// where every row belongs to a user.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/Veraticus/mycash/internal/common"
	"github.com/Veraticus/mycash/internal/model"
	"github.com/Veraticus/mycash/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ service.Storage = (*PostgresStorage)(nil)

// uniqueViolation is the Postgres SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Config selects the database and the user whose rows are visible.
type Config struct {
	DSN    string
	UserID string
}

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStorage implements service.Storage with pgx.
type PostgresStorage struct {
	pool     *pgxpool.Pool
	userID   string
	settings LocalSettings
}

// Open connects to the database described by cfg. Settings are served from
// settings, which the storage closes along with the pool. Connection failures
// wrap common.ErrStorageUnavailable.
func Open(ctx context.Context, cfg Config, settings LocalSettings) (*PostgresStorage, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("%w: remote.dsn is required", common.ErrInvalidConfig)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse database config: %w", common.ErrInvalidConfig, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create connection pool: %w", common.ErrStorageUnavailable, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %w", common.ErrStorageUnavailable, err)
	}

	slog.Info("Remote database connection established",
		"host", poolConfig.ConnConfig.Host,
		"database", poolConfig.ConnConfig.Database)

	return New(pool, cfg.UserID, settings), nil
}

// New wraps an existing pool. An empty userID makes every operation fail with
// common.ErrNotAuthenticated.
func New(pool *pgxpool.Pool, userID string, settings LocalSettings) *PostgresStorage {
	return &PostgresStorage{
		pool:     pool,
		userID:   strings.TrimSpace(userID),
		settings: settings,
	}
}

// UserID returns the user whose rows this storage reads and writes.
func (s *PostgresStorage) UserID() string {
	return s.userID
}

// Close releases the pool and the local settings store.
func (s *PostgresStorage) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.settings != nil {
		return s.settings.Close()
	}
	return nil
}

func (s *PostgresStorage) authenticated(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	if s.userID == "" {
		return common.ErrNotAuthenticated
	}
	return nil
}

// ReplaceAll swaps both tables for the current user in one database transaction.
func (s *PostgresStorage) ReplaceAll(ctx context.Context, transactions []model.Transaction, categories []model.Category) error {
	if err := s.authenticated(ctx); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return translate(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, table := range []string{"transactions", "categories"} {
		if err := exec(ctx, tx, psql.Delete(table).Where(squirrel.Eq{"user_id": s.userID}), "clear "+table); err != nil {
			return err
		}
	}

	if len(categories) > 0 {
		if err := exec(ctx, tx, insertCategoriesQuery(s.userID, categories), "insert categories"); err != nil {
			return err
		}
	}
	for i := range transactions {
		if err := s.insertTransaction(ctx, tx, &transactions[i], "insert transaction"); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return translate(err, "commit transaction")
	}
	return nil
}

// exec renders and runs a statement.
func exec(ctx context.Context, q querier, b squirrel.Sqlizer, op string) error {
	_, err := execTag(ctx, q, b, op)
	return err
}

func execTag(ctx context.Context, q querier, b squirrel.Sqlizer, op string) (pgconn.CommandTag, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("failed to build %s query: %w", op, err)
	}
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return tag, translate(err, op)
	}
	return tag, nil
}

// translate maps driver errors onto the shared error taxonomy.
func translate(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("failed to %s: %w", op, common.ErrDuplicateCategory)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: failed to %s: %w", common.ErrStorageUnavailable, op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// nullable turns empty strings into SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
