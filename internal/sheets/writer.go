package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Veraticus/expensy/internal/common"
	"github.com/Veraticus/expensy/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ReportSheet is the tab the report is written to.
const ReportSheet = "Report"

// Writer implements service.ReportWriter for Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

var _ service.ReportWriter = (*Writer)(nil)

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return NewWriterWithService(config, srv, logger), nil
}

// NewWriterWithService creates a writer on an existing Sheets service.
func NewWriterWithService(config Config, srv *sheets.Service, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{config: config, service: srv, logger: logger}
}

// Write implements service.ReportWriter.
func (w *Writer) Write(ctx context.Context, report *service.Report) error {
	data := NewReportData(report)
	w.logger.Info("starting report generation",
		"transactions", len(data.Transactions),
		"categories", len(data.Categories),
		"months", len(data.History))

	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	var (
		spreadsheetID string
		sheetID       int64
	)
	err := common.WithRetry(ctx, func(ctx context.Context) error {
		var err error
		spreadsheetID, sheetID, err = w.getOrCreateSpreadsheet(ctx)
		return classify(err)
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if err := common.WithRetry(ctx, func(ctx context.Context) error {
		return classify(w.clearSheet(ctx, spreadsheetID))
	}, retryOpts); err != nil {
		return fmt.Errorf("failed to clear sheet: %w", err)
	}

	values := w.prepareReportData(data)
	if err := common.WithRetry(ctx, func(ctx context.Context) error {
		return classify(w.writeData(ctx, spreadsheetID, values))
	}, retryOpts); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err := common.WithRetry(ctx, func(ctx context.Context) error {
			return classify(w.applyFormatting(ctx, spreadsheetID, sheetID, len(values), data.Currency))
		}, retryOpts)
		if err != nil {
			// The data is written; a bare sheet is still useful.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("report generation completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return nil
}

// classify marks client errors as final so only throttling and server
// failures are retried.
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code < http.StatusInternalServerError && apiErr.Code != http.StatusTooManyRequests {
		return &common.RetryableError{Err: err, Retryable: false}
	}
	return err
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		oauthConfig := newOAuthConfig(config)

		token := &oauth2.Token{RefreshToken: config.RefreshToken, TokenType: "Bearer"}
		if config.RefreshToken == "" {
			stored, err := GetOrCreateToken(ctx, config)
			if err != nil {
				return nil, err
			}
			token = stored
		}

		tokenSource = oauthConfig.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet gets an existing spreadsheet or creates a new one,
// and returns it with the id of the report tab.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, int64, error) {
	if w.config.SpreadsheetID != "" {
		existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", 0, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		sheetID, err := w.ensureReportSheet(ctx, existing)
		return w.config.SpreadsheetID, sheetID, err
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: ReportSheet}},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	// Later runs write to the same spreadsheet.
	w.config.SpreadsheetID = created.SpreadsheetId
	sheetID, _ := findSheet(created, ReportSheet)
	return created.SpreadsheetId, sheetID, nil
}

// ensureReportSheet adds the report tab to a spreadsheet that lacks it.
func (w *Writer) ensureReportSheet(ctx context.Context, spreadsheet *sheets.Spreadsheet) (int64, error) {
	if id, ok := findSheet(spreadsheet, ReportSheet); ok {
		return id, nil
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(spreadsheet.SpreadsheetId, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: ReportSheet},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to add %s sheet: %w", ReportSheet, err)
	}
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		return resp.Replies[0].AddSheet.Properties.SheetId, nil
	}
	return 0, nil
}

func findSheet(spreadsheet *sheets.Spreadsheet, title string) (int64, bool) {
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return sheet.Properties.SheetId, true
		}
	}
	return 0, false
}

// clearSheet clears all data from the sheet.
func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, ReportSheet+"!A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// Section titles.
const (
	titleSummary      = "Summary"
	titleHistory      = "Monthly Spending"
	titleCategories   = "Categories"
	titleTransactions = "Transactions"
)

// prepareReportData lays the report out as rows: title, summary, monthly
// history, categories, then transactions.
func (w *Writer) prepareReportData(data ReportData) [][]any {
	estimatedRows := 16 + len(data.History) + len(data.Categories) + len(data.Transactions)
	values := make([][]any, 0, estimatedRows)

	values = append(values,
		[]any{"Expensy Report", data.GeneratedAt.Format("Jan 2, 2006 15:04")},
		[]any{},
		[]any{titleSummary},
		[]any{"Owner", data.Owner},
		[]any{"Monthly Budget", data.Budget},
		[]any{"Spent This Month", data.SpentMonth},
		[]any{"Transactions", len(data.Transactions)},
		[]any{},
		[]any{titleHistory},
		[]any{"Month", "Amount"},
	)
	for _, m := range data.History {
		values = append(values, []any{m.Month, m.Amount})
	}

	values = append(values,
		[]any{},
		[]any{titleCategories},
		[]any{"Category", "Budget", "Spent", "Remaining"},
	)
	for _, c := range data.Categories {
		values = append(values, []any{c.Name, c.Budget, c.Spent, c.Remaining})
	}

	values = append(values,
		[]any{},
		[]any{titleTransactions},
		[]any{"Date", "Merchant", "Amount", "Currency", "Category", "Pending"},
	)
	for _, t := range data.Transactions {
		values = append(values, []any{
			t.Date.Format("2006-01-02"),
			t.Merchant,
			t.Amount.InexactFloat64(),
			t.Currency,
			t.Category,
			t.Pending,
		})
	}

	return values
}

// writeData writes the data to the spreadsheet.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	// Batches keep each request under the API limits.
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))

		batch := values[i:end]
		valueRange := &sheets.ValueRange{Values: batch}

		rangeStr := fmt.Sprintf("%s!A%d", ReportSheet, i+1)
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, valueRange).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}

	return nil
}

// applyFormatting bolds the title column, formats the money columns in the
// user's currency and freezes the title row.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, sheetID int64, totalRows int, currency string) error {
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   2,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true, FontSize: 16},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    2,
					EndRowIndex:      int64(totalRows),
					StartColumnIndex: 0,
					EndColumnIndex:   1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    2,
					EndRowIndex:      int64(totalRows),
					StartColumnIndex: 1,
					EndColumnIndex:   4,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{
							Type:    "NUMBER",
							Pattern: currencyPattern(currency),
						},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   6,
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	batchUpdate := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdate).Context(ctx).Do()
	return err
}

// currencyPattern puts the currency symbol after the amount, as the app does.
func currencyPattern(currency string) string {
	if currency == "" {
		return "#,##0.00"
	}
	return fmt.Sprintf(`#,##0.00"%s"`, currency)
}
