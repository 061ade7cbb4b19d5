package sheets

import (
	"sort"
	"time"

	"github.com/Veraticus/expensy/internal/service"
	"github.com/shopspring/decimal"
)

// MonthRow is one month of the spending history.
type MonthRow struct {
	Month  string
	Amount float64
}

// CategoryRow is one category with its budget and spending this month.
type CategoryRow struct {
	Name      string
	Budget    float64
	Spent     float64
	Remaining float64
}

// TransactionRow is one transaction in the details section.
type TransactionRow struct {
	Date     time.Time
	Merchant string
	Category string
	Amount   decimal.Decimal
	Currency string
	Pending  bool
}

// ReportData holds everything written to the spreadsheet.
type ReportData struct {
	GeneratedAt  time.Time
	Owner        string
	Currency     string
	Budget       float64
	SpentMonth   float64
	History      []MonthRow
	Categories   []CategoryRow
	Transactions []TransactionRow
}

// NewReportData shapes a report into rows. Categories are ordered by spending
// and transactions newest first. Deleted transactions are dropped.
func NewReportData(report *service.Report) ReportData {
	data := ReportData{
		GeneratedAt: report.GeneratedAt,
		Owner:       report.User.FullName,
		Currency:    report.User.Currency,
		Budget:      report.User.MonthlyBudget,
	}
	if data.Owner == "" {
		data.Owner = report.User.Email
	}

	for _, m := range report.History.Series() {
		data.History = append(data.History, MonthRow{Month: m.Month.Format("January 2006"), Amount: m.Amount})
	}

	for _, c := range report.Categories {
		data.SpentMonth += c.MonthlySpending
		data.Categories = append(data.Categories, CategoryRow{
			Name:      c.CategoryName,
			Budget:    float64(c.MonthlyBudget),
			Spent:     c.MonthlySpending,
			Remaining: float64(c.MonthlyBudget) - c.MonthlySpending,
		})
	}
	sort.SliceStable(data.Categories, func(i, j int) bool {
		return data.Categories[i].Spent > data.Categories[j].Spent
	})

	for i := range report.Transactions {
		t := &report.Transactions[i]
		if t.IsDeleted {
			continue
		}
		amount, currency := t.DisplayAmount(report.User.Currency)
		data.Transactions = append(data.Transactions, TransactionRow{
			Date:     t.PurchaseDate.Time,
			Merchant: t.Merchant(),
			Category: t.Category(),
			Amount:   amount,
			Currency: currency,
			Pending:  t.IsPending,
		})
	}
	sort.SliceStable(data.Transactions, func(i, j int) bool {
		return data.Transactions[i].Date.After(data.Transactions[j].Date)
	})

	return data
}
