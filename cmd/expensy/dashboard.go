package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/expensy/internal/api"
	"github.com/Veraticus/expensy/internal/cli"
	"github.com/Veraticus/expensy/internal/common"
	"github.com/Veraticus/expensy/internal/dashboard"
	"github.com/Veraticus/expensy/internal/tui/themes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func dashboardCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Show this month's budget, top categories and latest transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				if _, err := a.user(); err != nil {
					return err
				}
				summary, err := dashboard.Load(ctx, a.state, a.now())
				var partial *dashboard.PartialError
				switch {
				case errors.As(err, &partial):
					if errors.Is(err, common.ErrSessionExpired) {
						return err
					}
					for _, failed := range partial.Failed {
						a.println(cli.FormatWarning(api.UserMessage(failed)))
					}
				case err != nil:
					return err
				}
				a.println(renderDashboard(summary))
				return nil
			})
		},
	}
}

func renderDashboard(s dashboard.Summary) string {
	currency := s.User.Currency
	var b strings.Builder

	greeting := "Hello"
	if s.User.FullName != "" {
		greeting += ", " + s.User.FullName
	}
	b.WriteString(cli.FormatTitle(greeting) + "\n")

	budget := []string{
		fmt.Sprintf("Spent      %s of %s (%.0f%%)",
			dashboard.FormatAmount(s.Spent, currency), dashboard.FormatAmount(s.Budget, currency), s.BudgetUsed()),
		fmt.Sprintf("Daily avg  %s", dashboard.FormatAmount(s.DailyAverage, currency)),
		fmt.Sprintf("Per day    %s for the %d days left", dashboard.FormatAmount(s.DailySurplus, currency), s.DaysLeft),
	}
	b.WriteString(cli.RenderBox(s.Now.Format("January 2006"), strings.Join(budget, "\n")) + "\n")
	if s.BudgetUsed() > 100 {
		b.WriteString(cli.FormatWarning("Over budget this month") + "\n")
	}

	if len(s.TopCategories) > 0 {
		rows := make([][]string, 0, len(s.TopCategories))
		for _, c := range s.TopCategories {
			rows = append(rows, []string{
				themes.GetCategoryIcon(c.CategoryName) + " " + c.CategoryName,
				dashboard.FormatAmount(c.MonthlySpending, currency),
			})
		}
		b.WriteString(cli.FormatInfo("Top categories") + "\n")
		b.WriteString(cli.RenderTable([]string{"Category", "Spent"}, rows) + "\n")
	}

	if len(s.Latest) == 0 {
		b.WriteString(cli.FormatInfo("No transactions yet"))
		return b.String()
	}
	rows := make([][]string, 0, len(s.Latest))
	for _, t := range s.Latest {
		rows = append(rows, []string{
			t.PurchaseDate.DateString(),
			t.Merchant(),
			t.Category(),
			dashboard.FormatTransaction(t, currency),
		})
	}
	b.WriteString(cli.FormatInfo("Latest transactions") + "\n")
	b.WriteString(cli.RenderTable([]string{"Date", "Store", "Category", "Amount"}, rows))
	return b.String()
}
