package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Veraticus/mycash/internal/model"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 5

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					kind TEXT NOT NULL,
					amount TEXT NOT NULL,
					date TEXT NOT NULL,
					category TEXT,
					description TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_kind ON transactions(kind)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category)`,
			}

			return execAll(tx, queries)
		},
	},
	{
		Version:     2,
		Description: "Add categories table with default categories",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS categories (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					type TEXT NOT NULL,
					color TEXT,
					is_default BOOLEAN NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX IF NOT EXISTS idx_categories_name ON categories(name)`,
				`CREATE INDEX IF NOT EXISTS idx_categories_type ON categories(type)`,
			}
			if err := execAll(tx, queries); err != nil {
				return err
			}

			// An interrupted earlier attempt may have inserted some defaults already.
			var inserted int64
			for _, cat := range model.DefaultCategories() {
				result, err := tx.Exec(`
					INSERT OR IGNORE INTO categories (id, name, type, is_default)
					SELECT ?, ?, ?, 1
					WHERE NOT EXISTS (
						SELECT 1 FROM categories WHERE name = ? COLLATE NOCASE AND type = ?
					)`,
					cat.ID, cat.Name, string(cat.Type), cat.Name, string(cat.Type))
				if err != nil {
					return fmt.Errorf("failed to insert default category %q: %w", cat.Name, err)
				}
				n, _ := result.RowsAffected()
				inserted += n
			}

			slog.Info("Seeded default categories", "inserted", inserted)
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add settings table for local flags and documents",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS settings (
					key TEXT PRIMARY KEY,
					value TEXT NOT NULL,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)
			`)
			if err != nil {
				return fmt.Errorf("failed to create settings table: %w", err)
			}
			return nil
		},
	},
	{
		Version:     4,
		Description: "Track category ids, tags and notes on transactions",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`ALTER TABLE transactions ADD COLUMN category_id TEXT`,
				`ALTER TABLE transactions ADD COLUMN tags TEXT`,
				`ALTER TABLE transactions ADD COLUMN notes TEXT`,
				`ALTER TABLE categories ADD COLUMN icon TEXT`,
				`ALTER TABLE categories ADD COLUMN budget_limit TEXT`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_category_id ON transactions(category_id)`,
			}
			if err := execAll(tx, queries); err != nil {
				return err
			}

			// Existing rows only know their category by name.
			result, err := tx.Exec(`
				UPDATE transactions
				SET category_id = (
					SELECT c.id FROM categories c
					WHERE c.name = transactions.category AND c.type = transactions.kind
					LIMIT 1
				)
				WHERE category_id IS NULL`)
			if err != nil {
				return fmt.Errorf("failed to backfill category ids: %w", err)
			}
			backfilled, _ := result.RowsAffected()

			for _, cat := range model.DefaultCategories() {
				if _, err := tx.Exec(`UPDATE categories SET icon = ? WHERE id = ? AND icon IS NULL`, cat.Icon, cat.ID); err != nil {
					return fmt.Errorf("failed to set icon for %q: %w", cat.Name, err)
				}
			}

			slog.Info("Linked transactions to category ids", "transactions", backfilled)
			return nil
		},
	},
	{
		Version:     5,
		Description: "Enforce unique category name per type",
		Up: func(tx *sql.Tx) error {
			result, err := tx.Exec(`
				DELETE FROM categories
				WHERE rowid NOT IN (
					SELECT MIN(rowid) FROM categories GROUP BY name COLLATE NOCASE, type
				)`)
			if err != nil {
				return fmt.Errorf("failed to remove duplicate categories: %w", err)
			}
			if removed, _ := result.RowsAffected(); removed > 0 {
				slog.Warn("Removed duplicate categories", "count", removed)
			}

			if _, err := tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_type ON categories(name COLLATE NOCASE, type)`); err != nil {
				return fmt.Errorf("failed to create unique index: %w", err)
			}
			return nil
		},
	},
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

// SchemaVersion returns the version recorded in the database file.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := s.migrateTo(ctx, ExpectedSchemaVersion); err != nil {
		return err
	}

	// Verify we're at the expected schema version
	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// migrateTo applies pending migrations up to and including target. Each step commits
// together with its version bump, so a step never runs again once recorded.
func (s *SQLiteStorage) migrateTo(ctx context.Context, target int) error {
	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion || migration.Version > target {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	return nil
}

// PendingMigrations lists the steps Migrate would apply, in order.
func (s *SQLiteStorage) PendingMigrations(ctx context.Context) ([]Migration, error) {
	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, migration := range migrations {
		if migration.Version > currentVersion {
			pending = append(pending, migration)
		}
	}
	return pending, nil
}
