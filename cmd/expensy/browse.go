package main

import (
	"context"

	"github.com/Veraticus/expensy/internal/tui"
	"github.com/Veraticus/expensy/internal/tui/themes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func browseCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse transactions in an interactive table",
		Long: `Browse transactions page by page with sortable columns and filters.

The table opens where you left it; 'transactions list' shows the same view.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				user, err := a.user()
				if err != nil {
					return err
				}
				categories, err := a.categories(ctx)
				if err != nil {
					return err
				}
				return tui.Run(ctx, a.state, a.state.Navigator(),
					tui.WithPageSize(a.cfg.PageSize),
					tui.WithCurrency(user.Currency),
					tui.WithCategories(categories),
					tui.WithTheme(themes.GetTheme(a.cfg.Theme)),
				)
			})
		},
	}
}
