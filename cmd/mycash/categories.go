package main

import (
	"fmt"

	"github.com/Veraticus/mycash/internal/cli"
	"github.com/Veraticus/mycash/internal/common"
	"github.com/Veraticus/mycash/internal/model"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage income and expense categories",
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

// kindFlag reads a type flag. Unknown values pass through so the ledger reports them.
func kindFlag(cmd *cobra.Command) model.Kind {
	raw, _ := cmd.Flags().GetString("type")
	if kind, ok := model.ParseKind(raw); ok {
		return kind
	}
	return model.Kind(raw)
}

func addCategoryFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("name", "n", "", "category name")
	cmd.Flags().StringP("type", "t", "", "income or expense")
	cmd.Flags().String("color", "", "display color, e.g. #3B82F6")
	cmd.Flags().String("icon", "", "icon name")
	cmd.Flags().String("budget", "", "monthly budget limit")
}

func listCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			cats := a.ledger.Categories()
			if cmd.Flags().Changed("type") {
				kind := kindFlag(cmd)
				if !kind.Valid() {
					return common.NewValidationError("type", "must be income or expense")
				}
				cats = a.ledger.CategoriesByType(kind)
			}

			rows := make([][]string, 0, len(cats))
			for _, cat := range cats {
				budget := ""
				if cat.BudgetLimit != nil {
					budget = cli.FormatMoney(*cat.BudgetLimit)
				}
				flag := ""
				if cat.IsDefault {
					flag = "padrão"
				}
				rows = append(rows, []string{cat.ID, cat.Name, string(cat.Type), cat.Icon, budget, flag})
			}
			return cli.WriteTable(cmd.OutOrStdout(), []string{"id", "nome", "tipo", "ícone", "orçamento", ""}, rows)
		},
	}
	cmd.Flags().StringP("type", "t", "", "only income or expense categories")
	return cmd
}

func addCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Create a category",
		Example: `  mycash categories add --name Pets --type expense --budget 300`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input := model.CategoryInput{Type: kindFlag(cmd)}
			input.Name, _ = cmd.Flags().GetString("name")
			input.Color, _ = cmd.Flags().GetString("color")
			input.Icon, _ = cmd.Flags().GetString("icon")
			input.BudgetLimit, _ = cmd.Flags().GetString("budget")

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			cat, err := a.ledger.AddCategory(cmd.Context(), input)
			if err != nil {
				return err
			}
			writeLine(cmd.OutOrStdout(), "%s", cli.FormatSuccess(fmt.Sprintf("Categoria %q criada com id %s", cat.Name, cat.ID)))
			return nil
		},
	}
	addCategoryFlags(cmd)
	return cmd
}

func updateCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename or restyle a category; past transactions keep their label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			current, ok := a.ledger.Category(args[0])
			if !ok {
				return fmt.Errorf("category %s: %w", args[0], common.ErrNotFound)
			}

			input := model.CategoryInput{
				Name: current.Name,
				Type: current.Type,
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				input.Name, _ = flags.GetString("name")
			}
			if flags.Changed("type") {
				input.Type = kindFlag(cmd)
			}
			// Empty values leave the stored ones alone.
			input.Color, _ = flags.GetString("color")
			input.Icon, _ = flags.GetString("icon")
			input.BudgetLimit, _ = flags.GetString("budget")

			cat, err := a.ledger.UpdateCategory(cmd.Context(), args[0], input)
			if err != nil {
				return err
			}
			writeLine(cmd.OutOrStdout(), "%s", cli.FormatSuccess(fmt.Sprintf("Categoria %s atualizada: %s (%s)", cat.ID, cat.Name, cat.Type)))
			return nil
		},
	}
	addCategoryFlags(cmd)
	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category that no transaction references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			deleted, err := a.ledger.DeleteCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				writeLine(cmd.OutOrStdout(), "%s", cli.FormatWarning("Categoria "+args[0]+" não encontrada"))
				return nil
			}
			writeLine(cmd.OutOrStdout(), "%s", cli.FormatSuccess("Categoria "+args[0]+" excluída"))
			return nil
		},
	}
}
