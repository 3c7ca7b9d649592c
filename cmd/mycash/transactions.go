package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/mycash/internal/cli"
	"github.com/Veraticus/mycash/internal/common"
	"github.com/Veraticus/mycash/internal/model"
	"github.com/spf13/cobra"
)

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transactions"},
		Short:   "Manage income and expense transactions",
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(editTransactionCmd())
	cmd.AddCommand(deleteTransactionCmd())

	return cmd
}

// addTransactionFlags registers the write-shape flags shared by add and edit.
func addTransactionFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("type", "t", "", "income or expense (entrada/saida also accepted)")
	cmd.Flags().StringP("amount", "a", "", "amount, e.g. 25.50 or 25,50")
	cmd.Flags().StringP("date", "d", "", "date as YYYY-MM-DD")
	cmd.Flags().StringP("category", "c", "", "category id")
	cmd.Flags().String("description", "", "free text description")
	cmd.Flags().String("notes", "", "notes")
	cmd.Flags().StringSlice("tags", nil, "comma separated tags")
}

// applyTransactionFlags overlays the flags the user set onto input.
func applyTransactionFlags(cmd *cobra.Command, input *model.TransactionInput) {
	flags := cmd.Flags()
	if flags.Changed("type") {
		input.Type, _ = flags.GetString("type")
	}
	if flags.Changed("amount") {
		input.Amount, _ = flags.GetString("amount")
	}
	if flags.Changed("date") {
		input.TransactionDate, _ = flags.GetString("date")
	}
	if flags.Changed("category") {
		input.CategoryID, _ = flags.GetString("category")
	}
	if flags.Changed("description") {
		input.Description, _ = flags.GetString("description")
	}
	if flags.Changed("notes") {
		input.Notes, _ = flags.GetString("notes")
	}
	if flags.Changed("tags") {
		input.Tags, _ = flags.GetStringSlice("tags")
	}
}

func listTransactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			periodFlag, _ := cmd.Flags().GetString("period")
			period, err := parsePeriod(periodFlag)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			txns := a.ledger.FilterByPeriod(period)
			out := cmd.OutOrStdout()
			if len(txns) == 0 {
				writeLine(out, "%s", cli.FormatInfo("Nenhuma transação encontrada. Use 'mycash tx add' para registrar uma."))
				return nil
			}

			rows := make([][]string, 0, len(txns))
			for _, txn := range txns {
				rows = append(rows, []string{
					txn.ID,
					cli.FormatDate(txn.Date),
					cli.SignedAmount(txn.Kind, txn.Amount),
					txn.DisplayCategory(),
					txn.Description,
					strings.Join(txn.Tags, ","),
				})
			}
			return cli.WriteTable(out, []string{"id", "data", "valor", "categoria", "descrição", "tags"}, rows)
		},
	}
	cmd.Flags().StringP("period", "p", "all", "week, month, quarter, year or all")
	return cmd
}

func addTransactionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Example: `  mycash tx add --type expense --amount 42,90 --date 2024-05-20 --category 1 --description "Mercado"
  mycash tx add -t income -a 5000 -d 2024-05-05 -c 7`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var input model.TransactionInput
			applyTransactionFlags(cmd, &input)

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			txn, err := a.ledger.AddTransaction(cmd.Context(), input)
			if err != nil {
				return err
			}

			writeLine(cmd.OutOrStdout(), "%s", cli.FormatSuccess(fmt.Sprintf("Transação %s registrada: %s em %s (%s)",
				txn.ID, cli.SignedAmount(txn.Kind, txn.Amount), cli.FormatDate(txn.Date), txn.DisplayCategory())))
			return nil
		},
	}
	addTransactionFlags(cmd)
	return cmd
}

func editTransactionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace a transaction; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			current, ok := a.ledger.Transaction(args[0])
			if !ok {
				return fmt.Errorf("transaction %s: %w", args[0], common.ErrNotFound)
			}

			input := model.TransactionInput{
				Description:     current.Description,
				Amount:          current.Amount.String(),
				Type:            string(current.Kind),
				TransactionDate: current.Date.Format(model.DateLayout),
				CategoryID:      current.CategoryID,
				Notes:           current.Notes,
				Tags:            current.Tags,
			}
			applyTransactionFlags(cmd, &input)

			txn, err := a.ledger.UpdateTransaction(cmd.Context(), args[0], input)
			if err != nil {
				return err
			}

			writeLine(cmd.OutOrStdout(), "%s", cli.FormatSuccess(fmt.Sprintf("Transação %s atualizada: %s em %s (%s)",
				txn.ID, cli.SignedAmount(txn.Kind, txn.Amount), cli.FormatDate(txn.Date), txn.DisplayCategory())))
			return nil
		},
	}
	addTransactionFlags(cmd)
	return cmd
}

func deleteTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			deleted, err := a.ledger.DeleteTransaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				writeLine(cmd.OutOrStdout(), "%s", cli.FormatWarning("Transação "+args[0]+" não encontrada"))
				return nil
			}
			writeLine(cmd.OutOrStdout(), "%s", cli.FormatSuccess("Transação "+args[0]+" excluída"))
			return nil
		},
	}
}
