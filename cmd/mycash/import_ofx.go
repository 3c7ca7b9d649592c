package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/mycash/internal/classification"
	"github.com/Veraticus/mycash/internal/cli"
	"github.com/Veraticus/mycash/internal/model"
	"github.com/Veraticus/mycash/internal/ofx"
	"github.com/spf13/cobra"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import transactions from OFX/QFX bank statements",
		Long: `Import transactions from OFX or QFX files exported by your bank.

Debits become expenses and credits become income. Entries already in the
ledger with the same type, date, amount and description are skipped, so
overlapping statements can be imported safely. Within the imported files,
entries are told apart by the bank's transaction id, so two identical
charges on the same day are both kept.

Without a category flag, each entry is filed under the default category
its description suggests (UBER goes to Transporte, FARMACIA to Saúde) and
under Outros when nothing matches. Use --no-suggest to turn this off.

Examples:
  # Import a single statement
  mycash import-ofx ~/Downloads/extrato-maio.ofx

  # Import every statement in a directory, filing expenses under category 1
  mycash import-ofx --expense-category 1 ~/Downloads/*.ofx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().Bool("dry-run", false, "preview the import without saving")
	cmd.Flags().String("expense-category", "", "category id for imported expenses")
	cmd.Flags().String("income-category", "", "category id for imported income")
	cmd.Flags().Bool("no-suggest", false, "do not suggest categories from descriptions")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	expenseCategory, _ := cmd.Flags().GetString("expense-category")
	incomeCategory, _ := cmd.Flags().GetString("income-category")
	noSuggest, _ := cmd.Flags().GetBool("no-suggest")
	out := cmd.OutOrStdout()

	var files []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to import")
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	dedup := ofx.NewDeduper(a.ledger.Transactions())

	var detector *classification.PatternDetector
	if !noSuggest {
		if detector, err = classification.NewPatternDetector(classification.DefaultPatterns()); err != nil {
			return err
		}
	}

	cats := a.ledger.Categories()
	parser := ofx.NewParser()
	var drafts []model.TransactionInput
	for _, path := range files {
		stmt, err := parseStatement(cmd, parser, path)
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", path, "error", err)
			continue
		}

		added := 0
		for _, entry := range stmt.Transactions {
			if !dedup.Keep(entry) {
				continue
			}
			draft := entry.TransactionInput
			if draft.Type == string(model.KindExpense) {
				draft.CategoryID = expenseCategory
			} else {
				draft.CategoryID = incomeCategory
			}
			if draft.CategoryID == "" && detector != nil {
				draft.CategoryID = suggestCategory(detector, cats, draft)
			}
			drafts = append(drafts, draft)
			added++
		}
		writeLine(out, "  %s: %d novas, %d já registradas", filepath.Base(path), added, len(stmt.Transactions)-added)
	}

	if len(drafts) == 0 {
		writeLine(out, "%s", cli.FormatInfo("Nenhuma transação nova para importar"))
		return nil
	}
	if dryRun {
		rows := make([][]string, 0, len(drafts))
		for _, d := range drafts {
			category := model.FallbackCategoryName
			if cat, ok := a.ledger.Category(d.CategoryID); ok {
				category = cat.Name
			}
			rows = append(rows, []string{d.TransactionDate, d.Type, d.Amount, category, d.Description})
		}
		return cli.WriteTable(out, []string{"data", "tipo", "valor", "categoria", "descrição"}, rows)
	}

	bar := cli.NewProgress(out, len(drafts), "Importando transações...")
	imported := 0
	for _, draft := range drafts {
		if _, err := a.ledger.AddTransaction(cmd.Context(), draft); err != nil {
			return fmt.Errorf("imported %d of %d transactions: %w", imported, len(drafts), err)
		}
		imported++
		if err := bar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}

	writeLine(out, "%s", cli.FormatSuccess(fmt.Sprintf("%d transações importadas", imported)))
	return nil
}

func parseStatement(cmd *cobra.Command, parser *ofx.Parser, path string) (*ofx.Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return parser.ParseFile(cmd.Context(), f)
}

// suggestCategory returns the id of the category the detector suggests for draft,
// or "" when there is no suggestion or the category no longer exists.
func suggestCategory(detector *classification.PatternDetector, cats []model.Category, draft model.TransactionInput) string {
	match := detector.Classify(draft)
	if match == nil {
		return ""
	}
	for _, cat := range cats {
		if cat.SameKey(match.Category, match.Kind) {
			slog.Debug("Suggested category", "description", draft.Description, "category", cat.Name, "confidence", match.Confidence)
			return cat.ID
		}
	}
	return ""
}
