package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/expensy/internal/cli"
	"github.com/Veraticus/expensy/internal/config"
	"github.com/Veraticus/expensy/internal/dashboard"
	"github.com/Veraticus/expensy/internal/model"
	"github.com/Veraticus/expensy/internal/ofx"
	"github.com/Veraticus/expensy/internal/query"
	"github.com/Veraticus/expensy/internal/service"
	"github.com/Veraticus/expensy/internal/sheets"
	"github.com/Veraticus/expensy/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

type exportFlags struct {
	sync   bool
	window int
}

func (f *exportFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.sync, "sync", true, "fetch every row of the current listing first")
	cmd.Flags().IntVar(&f.window, "window", 100, "rows per request while syncing")
}

func exportCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions and spending",
		Long: `Export the transactions of the current listing together with categories
and monthly spending. Filters set with 'transactions list' or the browser
decide which transactions are exported.`,
	}
	cmd.AddCommand(exportOFXCmd(v), exportSheetsCmd(v), exportCheckCmd(v))
	return cmd
}

func exportOFXCmd(v *viper.Viper) *cobra.Command {
	var flags exportFlags
	var dir string
	cmd := &cobra.Command{
		Use:   "ofx",
		Short: "Write an OFX credit card statement",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				if cmd.Flags().Changed("dir") {
					a.cfg.ExportDir = config.ExpandPath(dir)
				}
				exporter, err := ofx.NewExporter(a.cfg.ExportCurrency, a.cfg.ExportAccount)
				if err != nil {
					return err
				}
				writer := ofx.NewFileWriter(exporter, a.cfg.ExportDir)

				report, err := exportReport(ctx, a, flags, writer)
				if err != nil {
					return err
				}
				a.println(cli.FormatSuccess(fmt.Sprintf("Exported %d transactions to %s",
					len(report.Transactions), writer.Path(report.GeneratedAt))))
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&dir, "dir", "", "directory to write to (default: export.dir)")
	return cmd
}

func exportSheetsCmd(v *viper.Viper) *cobra.Command {
	var flags exportFlags
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Write the report to a Google spreadsheet",
		Long: `Write the report to a Google spreadsheet.

Authenticate with a service account (sheets.service_account_path) or with
OAuth2 client credentials (sheets.client_id and sheets.client_secret). Without
a refresh token the first run opens the browser flow and keeps the token.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				cfg, err := config.LoadSheetsConfig(v)
				if err != nil {
					return fmt.Errorf("sheets configuration: %w", err)
				}
				writer, err := sheets.NewWriter(ctx, *cfg, slog.Default())
				if err != nil {
					return err
				}

				report, err := exportReport(ctx, a, flags, writer)
				if err != nil {
					return err
				}
				a.println(cli.FormatSuccess(fmt.Sprintf("Exported %d transactions to %q",
					len(report.Transactions), cfg.SpreadsheetName)))
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

// exportReport refreshes what the report reads, builds it, and hands it to
// writer.
func exportReport(ctx context.Context, a *app, flags exportFlags, writer service.ReportWriter) (*service.Report, error) {
	if _, err := a.user(); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.state.FetchAndSetCategories(gctx, true)
	})
	g.Go(func() error {
		return a.state.FetchAndSetSpendingHistory(gctx, true)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if flags.sync {
		view := query.NewSynchronizer(a.state.Navigator(), nil).Load()
		handler := cli.NewInterruptHandler(a.out)
		ctx = handler.HandleInterrupts(ctx, "Export", "")
		progress := cli.NewProgress(a.out, "Fetching transactions")
		if err := a.state.SyncTransactions(ctx, view.APIParams(), flags.window, progress.Update); err != nil {
			return nil, err
		}
	}

	report, err := a.state.Report()
	if err != nil {
		return nil, err
	}
	if err := writer.Write(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func exportCheckCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Compare an OFX statement with the cached transactions",
		Long: `Compare an OFX statement, usually one written by 'export ofx', with the
transactions held in the session. Rows edited or deleted since the export are
listed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v, func(ctx context.Context, a *app) error {
				user, err := a.user()
				if err != nil {
					return err
				}
				f, err := os.Open(args[0]) //nolint:gosec // the user names the file
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()

				statements, err := ofx.NewParser().ParseFile(ctx, f)
				if err != nil {
					return err
				}

				held := a.state.Transactions()
				var rows [][]string
				checked := 0
				for _, stmt := range statements {
					for i := range stmt.Transactions {
						checked++
						if row := compareExported(&stmt.Transactions[i], held, user.Currency); row != nil {
							rows = append(rows, row)
						}
					}
				}

				if len(rows) == 0 {
					a.println(cli.FormatSuccess(fmt.Sprintf("All %d exported transactions match", checked)))
					return nil
				}
				a.println(cli.RenderTable([]string{"ID", "Store", "Exported", "Now"}, rows))
				a.println(cli.FormatWarning(fmt.Sprintf("%d of %d exported transactions differ", len(rows), checked)))
				return nil
			})
		},
	}
}

// compareExported returns a table row when exported no longer matches the
// held transaction with the same id.
func compareExported(exported *model.Transaction, held *store.TransactionsCache, currency string) []string {
	was := dashboard.FormatAmount(exported.TransactionAmount.InexactFloat64(), currency)
	current, ok := held.Find(exported.ID)
	switch {
	case !ok:
		return []string{exported.ID, exported.Merchant(), was, "not held"}
	case current.IsDeleted:
		return []string{exported.ID, exported.Merchant(), was, "deleted"}
	case !current.TransactionAmount.Equal(exported.TransactionAmount):
		return []string{exported.ID, exported.Merchant(), was, dashboard.FormatTransaction(current, currency)}
	default:
		return nil
	}
}
