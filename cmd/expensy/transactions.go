package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/expensy/internal/cli"
	"github.com/Veraticus/expensy/internal/common"
	"github.com/Veraticus/expensy/internal/dashboard"
	"github.com/Veraticus/expensy/internal/model"
	"github.com/Veraticus/expensy/internal/query"
	"github.com/Veraticus/expensy/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func transactionsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "List, sync and edit card transactions",
	}
	cmd.AddCommand(
		transactionsListCmd(v),
		transactionsSyncCmd(v),
		transactionsEditCmd(v),
		transactionsDeleteCmd(v),
	)
	return cmd
}

func transactionsListCmd(v *viper.Viper) *cobra.Command {
	var flags viewFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show one page of the transaction table",
		Long: `Show one page of the transaction table.

Filters, sort and page are remembered between runs, the same way the
browser keeps them. Flags change only what they name; --reset starts over.`,
		Example: `  expensy transactions list --store coffee --sort transactionAmount:desc
  expensy transactions list --from 2024-03-01 --to 2024-03-31 --page 2
  expensy transactions list --reset`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				user, err := a.user()
				if err != nil {
					return err
				}
				view, err := flags.load(ctx, cmd, a)
				if err != nil {
					return err
				}
				page, err := a.state.FetchPage(ctx, view.APIParams(), view.Page, a.cfg.PageSize, false)
				if err != nil {
					return err
				}
				a.println(renderPage(page, view, user.Currency))
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func renderPage(page store.Page, view query.View, currency string) string {
	var b strings.Builder

	badges := query.ChangedFilters(query.InitialFilters(), view.Filters, view.Sort)
	if len(badges) > 0 {
		labels := make([]string, len(badges))
		for i, badge := range badges {
			labels[i] = badge.String()
		}
		b.WriteString(cli.FormatInfo("Filters: "+strings.Join(labels, " · ")) + "\n")
	}

	if page.TotalRows == 0 {
		b.WriteString(cli.FormatWarning("No transactions match") + "\n")
	} else {
		rows := make([][]string, 0, len(page.Rows))
		for _, t := range page.Rows {
			rows = append(rows, transactionRow(t, currency))
		}
		dim := func(i int) bool {
			return page.Rows[i] == nil || page.Rows[i].IsPending
		}
		b.WriteString(cli.RenderTableMuted([]string{"ID", "Date", "Store", "Category", "Amount", "Status"}, rows, dim) + "\n")
	}

	status := fmt.Sprintf("Page %d of %d · %d transactions", page.Number, page.TotalPages, page.TotalRows)
	if pending := page.Pending(); pending > 0 {
		status += fmt.Sprintf(" · %d loading", pending)
	}
	b.WriteString(status)
	if encoded := query.Encode(view).Encode(); encoded != "" {
		b.WriteString("\nQuery: " + encoded)
	}
	return b.String()
}

func transactionRow(t *model.Transaction, currency string) []string {
	if t == nil {
		return []string{"…", "", "", "", "", "loading"}
	}
	return []string{
		t.ID,
		t.PurchaseDate.DateString(),
		t.Merchant(),
		t.Category(),
		dashboard.FormatTransaction(t, currency),
		query.StatusLabel(&t.IsPending),
	}
}

func transactionsSyncCmd(v *viper.Viper) *cobra.Command {
	var window int
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch every row of the current listing",
		Long: `Fetch every row of the listing the table currently shows, window by
window, so later pages and exports need no further requests.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				if _, err := a.user(); err != nil {
					return err
				}
				sync := query.NewSynchronizer(a.state.Navigator(), nil)
				view := sync.Load()

				handler := cli.NewInterruptHandler(a.out)
				ctx = handler.HandleInterrupts(ctx, "Transaction sync", "Run 'expensy transactions sync' again to continue")

				progress := cli.NewProgress(a.out, "Syncing transactions")
				if err := a.state.SyncTransactions(ctx, view.APIParams(), window, progress.Update); err != nil {
					if handler.WasInterrupted() {
						return fmt.Errorf("sync interrupted: %w", err)
					}
					return err
				}

				held, total := a.state.Transactions(), 0
				if held != nil {
					total = held.TotalTransactionsCount
				}
				a.println(cli.FormatSuccess(fmt.Sprintf("Synced %d of %d transactions", held.LoadedCount(), total)))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&window, "window", 100, "rows per request")
	return cmd
}

type editFlags struct {
	category     string
	merchant     string
	address      string
	purchaseDate string
	paymentDate  string
	amount       float64
}

func transactionsEditCmd(v *viper.Viper) *cobra.Command {
	var flags editFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a transaction shown in the table",
		Long: `Edit a transaction shown in the table. Fields without a flag are asked
for interactively unless at least one field flag is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				if _, err := a.user(); err != nil {
					return err
				}
				t, ok := a.state.Transactions().Find(args[0])
				if !ok {
					return fmt.Errorf("%w: transaction %s is not in the table; list it first", common.ErrNotFound, args[0])
				}
				categories, err := a.categories(ctx)
				if err != nil {
					return err
				}

				update := model.NewTransactionUpdate(t)
				if !flags.any(cmd) {
					err = promptEdit(ctx, a, &update, t, categories)
				} else {
					err = flags.apply(cmd, &update, categories)
				}
				if err != nil {
					return err
				}

				view := query.NewSynchronizer(a.state.Navigator(), nil).Load()
				if err := a.state.SubmitTransactionEdit(ctx, a.client, update, pageWindow(view, a.cfg.PageSize)); err != nil {
					return err
				}
				a.println(cli.FormatSuccess("Transaction " + t.ID + " updated"))
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.category, "category", "", "category name or id")
	f.Float64Var(&flags.amount, "amount", 0, "transaction amount")
	f.StringVar(&flags.merchant, "merchant", "", "merchant name")
	f.StringVar(&flags.address, "address", "", "merchant address")
	f.StringVar(&flags.purchaseDate, "purchase-date", "", "purchase date, YYYY-MM-DD")
	f.StringVar(&flags.paymentDate, "payment-date", "", "payment date, YYYY-MM-DD")
	return cmd
}

var editFields = []string{"category", "amount", "merchant", "address", "purchase-date", "payment-date"}

func (f *editFlags) any(cmd *cobra.Command) bool {
	for _, name := range editFields {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func (f *editFlags) apply(cmd *cobra.Command, update *model.TransactionUpdate, categories []model.Category) error {
	flags := cmd.Flags()
	if flags.Changed("category") {
		category, err := findCategory(f.category, categories)
		if err != nil {
			return err
		}
		update.CategoryID = category.ID
	}
	if flags.Changed("amount") {
		update.TransactionAmount = f.amount
	}
	if flags.Changed("merchant") {
		update.MerchantData.Name = f.merchant
	}
	if flags.Changed("address") {
		update.MerchantData.Address = f.address
	}
	if flags.Changed("purchase-date") {
		update.PurchaseDate = f.purchaseDate
	}
	if flags.Changed("payment-date") {
		update.PaymentDate = f.paymentDate
	}
	return nil
}

func promptEdit(ctx context.Context, a *app, update *model.TransactionUpdate, t *model.Transaction, categories []model.Category) error {
	p := a.prompter
	p.Println(cli.FormatTitle("Edit " + t.Merchant()))

	names := make([]string, len(categories))
	current := -1
	for i, c := range categories {
		names[i] = c.CategoryName
		if c.ID == update.CategoryID {
			current = i
		}
	}
	picked, err := p.Choose(ctx, "Category", names, current)
	if err != nil {
		return err
	}
	update.CategoryID = categories[picked].ID

	if update.TransactionAmount, err = p.AskFloat(ctx, "Amount", update.TransactionAmount); err != nil {
		return err
	}
	if update.MerchantData.Name, err = p.Ask(ctx, "Merchant", update.MerchantData.Name); err != nil {
		return err
	}
	if update.MerchantData.Address, err = p.Ask(ctx, "Address", update.MerchantData.Address); err != nil {
		return err
	}
	if update.PurchaseDate, err = p.AskRequired(ctx, "Purchase date", update.PurchaseDate); err != nil {
		return err
	}
	update.PaymentDate, err = p.AskRequired(ctx, "Payment date", update.PaymentDate)
	return err
}

func transactionsDeleteCmd(v *viper.Viper) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction shown in the table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				user, err := a.user()
				if err != nil {
					return err
				}
				t, ok := a.state.Transactions().Find(args[0])
				if !ok {
					return fmt.Errorf("%w: transaction %s is not in the table; list it first", common.ErrNotFound, args[0])
				}

				if !yes {
					question := fmt.Sprintf("Delete %s %s on %s?", t.Merchant(),
						dashboard.FormatTransaction(t, user.Currency), t.PurchaseDate.DateString())
					confirmed, err := a.prompter.Confirm(ctx, question, false)
					if err != nil {
						return err
					}
					if !confirmed {
						a.println(cli.FormatInfo("Nothing deleted"))
						return nil
					}
				}

				view := query.NewSynchronizer(a.state.Navigator(), nil).Load()
				if err := a.state.DeleteTransaction(ctx, a.client, t.ID, pageWindow(view, a.cfg.PageSize)); err != nil {
					return err
				}
				a.println(cli.FormatSuccess("Transaction " + t.ID + " deleted"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation")
	return cmd
}
