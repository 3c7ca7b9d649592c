package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/mycash/internal/aggregate"
	"github.com/Veraticus/mycash/internal/cli"
	"github.com/Veraticus/mycash/internal/goals"
	"github.com/spf13/cobra"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show income, expenses and the expense breakdown for a period",
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

			summary := a.ledger.SummaryForPeriod(period)
			out := cmd.OutOrStdout()
			writeLine(out, "%s", cli.RenderBox(summary.Label, renderTotals(summary.Totals)+
				fmt.Sprintf("\nTransações: %d", summary.Transactions)))

			if len(summary.Expenses) == 0 {
				writeLine(out, "%s", cli.FormatInfo("Nenhuma despesa no período"))
				return nil
			}

			rows := make([][]string, 0, len(summary.Expenses))
			for _, share := range summary.Expenses {
				rows = append(rows, []string{share.Name, cli.FormatMoney(share.Total), cli.FormatPercent(share.Percent)})
			}
			return cli.WriteTable(out, []string{"categoria", "total", "%"}, rows)
		},
	}
	cmd.Flags().StringP("period", "p", "month", "week, month, quarter, year or all")
	return cmd
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the all-time balance and savings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			totals := a.ledger.Balance()
			list, err := a.goals.List(cmd.Context())
			if err != nil {
				return err
			}

			body := renderTotals(totals) + "\n" +
				fmt.Sprintf("Total em economia: %s\n", cli.FormatMoney(goals.TotalSavings(totals.Balance))) +
				fmt.Sprintf("Guardado nas metas: %s", cli.FormatMoney(goals.TotalSaved(list)))
			writeLine(cmd.OutOrStdout(), "%s", cli.RenderBox(cli.CashIcon+" Saldo", body))
			return nil
		},
	}
}

func renderTotals(t aggregate.Totals) string {
	var b strings.Builder
	b.WriteString("Receitas: " + cli.IncomeStyle.Render(cli.FormatMoney(t.Income)) + "\n")
	b.WriteString("Despesas: " + cli.ExpenseStyle.Render(cli.FormatMoney(t.Expenses)) + "\n")
	balance := cli.FormatMoney(t.Balance)
	if t.Balance.IsNegative() {
		balance = cli.ExpenseStyle.Render(balance)
	} else {
		balance = cli.IncomeStyle.Render(balance)
	}
	b.WriteString("Saldo:    " + cli.BoldStyle.Render(balance))
	return b.String()
}
