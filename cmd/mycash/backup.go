package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Veraticus/mycash/internal/backup"
	"github.com/Veraticus/mycash/internal/cli"
	"github.com/Veraticus/mycash/internal/common"
	"github.com/Veraticus/mycash/internal/config"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of all transactions and categories",
		Long: `Write every transaction and category to a JSON backup file.

The file is named mycash-backup-YYYY-MM-DD.json in the current directory
unless --output is given. Use --output - to write to standard output.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = backup.FileName(time.Now())
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			svc := backup.New(a.store)
			if output == "-" {
				return svc.Export(cmd.Context(), cmd.OutOrStdout())
			}

			path := config.ExpandPath(output)
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			if err := svc.Export(cmd.Context(), f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			writeLine(cmd.OutOrStdout(), "%s", cli.FormatSuccess("Backup salvo em "+path))
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "output file")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all transactions and categories with a JSON backup",
		Long: `Replace the stored transactions and categories with the contents of a
backup file. Files without categories restore the default set. A file
that is not a valid backup is rejected and nothing is changed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader
			if args[0] == "-" {
				r = cmd.InOrStdin()
			} else {
				f, err := os.Open(config.ExpandPath(args[0]))
				if err != nil {
					return fmt.Errorf("failed to open backup: %w", err)
				}
				defer func() {
					if cerr := f.Close(); cerr != nil {
						slog.Warn("Failed to close backup file", "error", cerr)
					}
				}()
				r = f
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ok, err := backup.New(a.store).Import(cmd.Context(), r)
			if err != nil {
				return err
			}
			if !ok {
				return common.NewUserError("Arquivo de backup inválido", common.ErrInvalidBackup)
			}
			if err := a.ledger.Reload(cmd.Context()); err != nil {
				return err
			}

			writeLine(cmd.OutOrStdout(), "%s", cli.FormatSuccess(fmt.Sprintf("Backup importado: %d transações, %d categorias",
				len(a.ledger.Transactions()), len(a.ledger.Categories()))))
			return nil
		},
	}
}
