package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/mycash/internal/cli"
	"github.com/Veraticus/mycash/internal/goals"
	"github.com/Veraticus/mycash/internal/model"
	"github.com/spf13/cobra"
)

func goalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "goals",
		Aliases: []string{"cofrinho"},
		Short:   "Track savings goals",
	}

	cmd.AddCommand(listGoalsCmd())
	cmd.AddCommand(addGoalCmd())
	cmd.AddCommand(editGoalCmd())
	cmd.AddCommand(deleteGoalCmd())
	cmd.AddCommand(moveGoalCmd("contribute", "Add money to a goal", (*goals.Store).Contribute))
	cmd.AddCommand(moveGoalCmd("withdraw", "Take money out of a goal", (*goals.Store).Withdraw))

	return cmd
}

func addGoalFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("name", "n", "", "goal name")
	cmd.Flags().StringP("target", "a", "", "target amount")
	cmd.Flags().StringP("due", "d", "", "due date as YYYY-MM-DD")
	cmd.Flags().String("description", "", "description")
	cmd.Flags().String("color", "", "display color")
	cmd.Flags().String("icon", "", "icon name")
}

func goalInput(cmd *cobra.Command, in goals.Input) goals.Input {
	flags := cmd.Flags()
	if flags.Changed("name") {
		in.Name, _ = flags.GetString("name")
	}
	if flags.Changed("target") {
		in.TargetAmount, _ = flags.GetString("target")
	}
	if flags.Changed("due") {
		in.DueDate, _ = flags.GetString("due")
	}
	if flags.Changed("description") {
		in.Description, _ = flags.GetString("description")
	}
	if flags.Changed("color") {
		in.Color, _ = flags.GetString("color")
	}
	if flags.Changed("icon") {
		in.Icon, _ = flags.GetString("icon")
	}
	return in
}

func describeGoal(g model.SavingsGoal, now time.Time) string {
	status := fmt.Sprintf("%d dias restantes", g.DaysRemaining(now))
	if g.Reached() {
		status = "meta atingida"
	}
	return fmt.Sprintf("%s: %s de %s (%s), %s", g.Name, cli.FormatMoney(g.CurrentAmount),
		cli.FormatMoney(g.TargetAmount), cli.FormatPercent(g.Progress()), status)
}

func listGoalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List savings goals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.goals.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				writeLine(out, "%s", cli.FormatInfo("Nenhuma meta cadastrada. Use 'mycash goals add' para criar uma."))
				return nil
			}

			writeLine(out, "%s", cli.FormatTitle(cli.GoalIcon, "Cofrinho"))
			now := time.Now()
			rows := make([][]string, 0, len(list))
			for _, g := range list {
				rows = append(rows, []string{
					g.ID,
					g.Name,
					cli.FormatMoney(g.CurrentAmount),
					cli.FormatMoney(g.TargetAmount),
					cli.FormatPercent(g.Progress()),
					cli.FormatDate(g.DueDate),
					fmt.Sprint(g.DaysRemaining(now)),
				})
			}
			if err := cli.WriteTable(out, []string{"id", "meta", "atual", "objetivo", "progresso", "prazo", "dias"}, rows); err != nil {
				return err
			}
			writeLine(out, "Total guardado: %s", cli.FormatMoney(goals.TotalSaved(list)))
			return nil
		},
	}
}

func addGoalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Create a savings goal",
		Example: `  mycash goals add --name Viagem --target 5000 --due 2025-12-31`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			g, err := a.goals.Create(cmd.Context(), goalInput(cmd, goals.Input{}))
			if err != nil {
				return err
			}
			writeLine(cmd.OutOrStdout(), "%s", cli.FormatSuccess(fmt.Sprintf("Meta %q criada com id %s", g.Name, g.ID)))
			return nil
		},
	}
	addGoalFlags(cmd)
	return cmd
}

func editGoalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a savings goal; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			current, err := a.goals.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			in := goalInput(cmd, goals.Input{
				Name:         current.Name,
				TargetAmount: current.TargetAmount.String(),
				DueDate:      current.DueDate.Format(model.DateLayout),
				Description:  current.Description,
				Color:        current.Color,
				Icon:         current.Icon,
			})

			g, err := a.goals.Update(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			writeLine(cmd.OutOrStdout(), "%s", cli.FormatSuccess(describeGoal(g, time.Now())))
			return nil
		},
	}
	addGoalFlags(cmd)
	return cmd
}

func deleteGoalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a savings goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			deleted, err := a.goals.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				writeLine(cmd.OutOrStdout(), "%s", cli.FormatWarning("Meta "+args[0]+" não encontrada"))
				return nil
			}
			writeLine(cmd.OutOrStdout(), "%s", cli.FormatSuccess("Meta "+args[0]+" excluída"))
			return nil
		},
	}
}

type goalMove func(*goals.Store, context.Context, string, string) (model.SavingsGoal, error)

func moveGoalCmd(use, short string, move goalMove) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			g, err := move(a.goals, cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			writeLine(cmd.OutOrStdout(), "%s", cli.FormatSuccess(describeGoal(g, time.Now())))
			return nil
		},
	}
}
