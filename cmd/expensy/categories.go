package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/expensy/internal/cli"
	"github.com/Veraticus/expensy/internal/dashboard"
	"github.com/Veraticus/expensy/internal/model"
	"github.com/Veraticus/expensy/internal/tui/themes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func categoriesCmd(v *viper.Viper) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Show your categories with their budget and spending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				user, err := a.user()
				if err != nil {
					return err
				}
				if err := a.state.FetchAndSetCategories(ctx, !refresh); err != nil {
					return err
				}
				categories, _ := a.state.Categories()
				if len(categories) == 0 {
					a.println(cli.FormatInfo("No categories yet; run 'expensy setup'"))
					return nil
				}

				rows := make([][]string, 0, len(categories))
				for _, c := range categories {
					used := "-"
					if c.MonthlyBudget > 0 {
						used = fmt.Sprintf("%.0f%%", c.MonthlySpending/float64(c.MonthlyBudget)*100)
					}
					name := themes.GetCategoryIcon(c.CategoryName) + " " + c.CategoryName
					if c.IsPinned {
						name += " 📌"
					}
					rows = append(rows, []string{
						strconv.Itoa(c.ID),
						name,
						dashboard.FormatAmount(float64(c.MonthlyBudget), user.Currency),
						dashboard.FormatAmount(c.MonthlySpending, user.Currency),
						used,
					})
				}
				a.println(cli.RenderTable([]string{"ID", "Category", "Budget", "Spent", "Used"}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached categories")
	return cmd
}

// historyBarWidth is the width of the longest bar in the history chart.
const historyBarWidth = 30

func historyCmd(v *viper.Viper) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show monthly spending over time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				user, err := a.user()
				if err != nil {
					return err
				}
				if err := a.state.FetchAndSetSpendingHistory(ctx, !refresh); err != nil {
					return err
				}
				series := a.state.SpendingHistory().Series()
				if len(series) == 0 {
					a.println(cli.FormatInfo("No spending recorded yet"))
					return nil
				}
				a.println(cli.RenderBox(cli.ChartIcon+" Monthly spending", renderHistory(series, user.Currency, user.MonthlyBudget)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached history")
	return cmd
}

// renderHistory draws one bar per month scaled to the largest of the
// months and the budget. Months over budget are marked.
func renderHistory(series []model.MonthSpending, currency string, budget float64) string {
	peak := budget
	for _, m := range series {
		peak = max(peak, m.Amount)
	}

	lines := make([]string, 0, len(series))
	for _, m := range series {
		width := 0
		if peak > 0 {
			width = int(m.Amount / peak * historyBarWidth)
		}
		line := fmt.Sprintf("%s %-*s %s", m.Month.Format("Jan 2006"),
			historyBarWidth, strings.Repeat("█", width), dashboard.FormatAmount(m.Amount, currency))
		if budget > 0 && m.Amount > budget {
			line += " " + cli.WarningIcon
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
