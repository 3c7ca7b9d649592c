package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/mycash/internal/cli"
	"github.com/Veraticus/mycash/internal/config"
	"github.com/Veraticus/mycash/internal/seed"
	"github.com/Veraticus/mycash/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the local database schema to the latest version.

Every other command migrates on open; this one reports what it did.
The hosted Postgres schema is managed outside mycash.`,
		RunE: runMigrate,
	}
	cmd.Flags().Bool("status", false, "show current migration status without applying changes")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	statusOnly, _ := cmd.Flags().GetBool("status")
	out := cmd.OutOrStdout()

	backend, err := config.LoadBackend()
	if err != nil {
		return err
	}
	if backend != config.BackendSQLite {
		writeLine(out, "%s", cli.FormatInfo("O esquema do backend remoto é gerenciado externamente"))
		return nil
	}

	dbPath := config.DatabasePath()
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
	}()

	ctx := cmd.Context()
	version, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	pending, err := store.PendingMigrations(ctx)
	if err != nil {
		return err
	}

	writeLine(out, "Banco de dados: %s", dbPath)
	writeLine(out, "Versão atual: %d (última: %d)", version, storage.ExpectedSchemaVersion)
	if statusOnly {
		for _, m := range pending {
			writeLine(out, "  pendente %d: %s", m.Version, m.Description)
		}
		return nil
	}
	if len(pending) == 0 {
		writeLine(out, "%s", cli.FormatSuccess("Esquema já está atualizado"))
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	writeLine(out, "%s", cli.FormatSuccess(fmt.Sprintf("%d migrações aplicadas", len(pending))))
	return nil
}

func resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all transactions, categories and savings goals",
		Long: `Reset removes every transaction, category and savings goal and restores
the default categories. Sample transactions are inserted again on the next
run. This cannot be undone; export a backup first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			force, _ := cmd.Flags().GetBool("force")
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if !force {
				ok, err := cli.Confirm(ctx, cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Apagar %d transações e todas as metas?", len(a.ledger.Transactions())))
				if err != nil {
					return err
				}
				if !ok {
					writeLine(cmd.OutOrStdout(), "%s", cli.FormatInfo("Nada foi apagado"))
					return nil
				}
			}

			if err := a.seeder.ResetAll(ctx); err != nil {
				return err
			}
			if err := a.goals.Clear(ctx); err != nil {
				return err
			}
			if _, err := a.seeder.EnsureDefaultCategories(ctx); err != nil {
				return err
			}

			writeLine(cmd.OutOrStdout(), "%s", cli.FormatSuccess("Todos os dados foram apagados"))
			return nil
		},
	}
	cmd.Flags().BoolP("force", "f", false, "skip confirmation prompt")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what is stored",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			status, err := a.seeder.Status(ctx)
			if err != nil {
				return err
			}
			list, err := a.goals.List(ctx)
			if err != nil {
				return err
			}

			var b strings.Builder
			if a.local != nil {
				version, err := a.local.SchemaVersion(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(&b, "Banco de dados: %s (esquema v%d)\n", a.local.Path(), version)
			} else {
				b.WriteString("Banco de dados: remoto\n")
			}
			fmt.Fprintf(&b, "Transações: %d\n", status.Transactions)
			fmt.Fprintf(&b, "Categorias: %d (%d padrão)\n", status.Categories, status.DefaultCategories)
			fmt.Fprintf(&b, "Metas: %d\n", len(list))
			fmt.Fprintf(&b, "Primeira instalação concluída: %t", status.FirstInstallCompleted)

			writeLine(cmd.OutOrStdout(), "%s", cli.RenderBox("mycash", b.String()))
			return nil
		},
	}
}

func clearSamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-samples",
		Short: "Delete the example transactions inserted on first run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			removed, err := a.seeder.ClearSampleData(cmd.Context())
			if err != nil {
				return err
			}
			writeLine(cmd.OutOrStdout(), "%s", cli.FormatSuccess(fmt.Sprintf("%d transações de exemplo removidas", removed)))
			return nil
		},
	}
}

func fixCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fix-categories",
		Short: "Repair default-category flags, or seed the defaults into an empty table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Opened without the startup seeding, which would repair silently.
			store, _, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					slog.Warn("Failed to close storage", "error", err)
				}
			}()

			fixed, err := seed.New(store).EnsureDefaultCategories(cmd.Context())
			if err != nil {
				return err
			}
			writeLine(cmd.OutOrStdout(), "%s", cli.FormatSuccess(fmt.Sprintf("%d categorias corrigidas", fixed)))
			return nil
		},
	}
}
