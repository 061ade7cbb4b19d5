// Package dashboard derives the monthly overview shown after sign-in.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/expensy/internal/common"
	"github.com/Veraticus/expensy/internal/model"
	"github.com/Veraticus/expensy/internal/query"
	"github.com/Veraticus/expensy/internal/service"
	"github.com/Veraticus/expensy/internal/store"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// Dashboard sizes.
const (
	LatestCount = 14
	TopCount    = 3
)

// Summary is the monthly overview.
type Summary struct {
	Now           time.Time
	User          model.User
	TopCategories []model.Category
	Latest        []*model.Transaction
	History       []model.MonthSpending
	Spent         float64
	Budget        float64
	DailyAverage  float64
	DailySurplus  float64
	DaysLeft      int
}

// BudgetUsed is the share of the monthly budget spent so far, in percent.
func (s Summary) BudgetUsed() float64 {
	if s.Budget <= 0 {
		return 0
	}
	return s.Spent / s.Budget * 100
}

// Build derives the summary from what the state holds. Spending this month
// comes from the history when the month is there, from the categories
// otherwise.
func Build(user model.User, categories []model.Category, history model.SpendingHistory, cache *store.TransactionsCache, now time.Time) Summary {
	spent, ok := history[model.MonthKey(now)]
	if !ok {
		for _, c := range categories {
			spent += c.MonthlySpending
		}
	}

	daysInMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	daysLeft := daysInMonth - now.Day() + 1

	return Summary{
		Now:           now,
		User:          user,
		Spent:         spent,
		Budget:        user.MonthlyBudget,
		DailyAverage:  spent / float64(now.Day()),
		DailySurplus:  (user.MonthlyBudget - spent) / float64(daysLeft),
		DaysLeft:      daysLeft,
		TopCategories: model.TopCategories(categories, TopCount),
		Latest:        Latest(cache, LatestCount),
		History:       history.Series(),
	}
}

// Latest returns up to n rows from the first chunk of cache, skipping rows
// not yet loaded.
func Latest(cache *store.TransactionsCache, n int) []*model.Transaction {
	if cache == nil || len(cache.Transactions) == 0 {
		return nil
	}
	var out []*model.Transaction
	for _, t := range cache.Transactions[0] {
		if len(out) == n {
			break
		}
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// PartialError lists the slots Load could not refresh. The summary returned
// with it is built from what the state still holds.
type PartialError struct {
	Failed []error
}

func (e *PartialError) Error() string {
	msgs := make([]string, len(e.Failed))
	for i, err := range e.Failed {
		msgs[i] = err.Error()
	}
	return "load dashboard: " + strings.Join(msgs, "; ")
}

func (e *PartialError) Unwrap() []error {
	return e.Failed
}

// Load refreshes everything the dashboard shows in parallel and builds the
// summary from the state. A failed refresh does not cancel the others; when
// any fails the summary is still returned together with a *PartialError.
func Load(ctx context.Context, state *store.State, now time.Time) (Summary, error) {
	user := state.User()
	if user == nil {
		return Summary{}, fmt.Errorf("load dashboard: %w", common.ErrNotLoggedIn)
	}

	fetches := []func(context.Context) error{
		func(ctx context.Context) error {
			return state.FetchAndSetCategories(ctx, true)
		},
		func(ctx context.Context) error {
			return state.FetchAndSetSpendingHistory(ctx, true)
		},
		func(ctx context.Context) error {
			q := service.TransactionQuery{
				Params: query.DefaultView().APIParams(),
				Index:  0,
				Length: LatestCount,
			}
			return state.FetchAndSetTransactions(ctx, q, false)
		},
	}

	errs := make([]error, len(fetches))
	var g errgroup.Group
	for i, fetch := range fetches {
		g.Go(func() error {
			errs[i] = fetch(ctx)
			return nil
		})
	}
	_ = g.Wait()

	categories, _ := state.Categories()
	summary := Build(*user, categories, state.SpendingHistory(), state.Transactions(), now)

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return summary, &PartialError{Failed: failed}
	}
	return summary, nil
}

var currencySymbols = map[string]string{
	"ILS": "₪",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CHF": "CHF",
}

// CurrencySymbol maps an ISO 4217 code to its symbol. Unknown codes and
// values that already are symbols are returned unchanged.
func CurrencySymbol(code string) string {
	if symbol, ok := currencySymbols[strings.ToUpper(code)]; ok {
		return symbol
	}
	return code
}

// FormatAmount renders amount with thousands separators followed by the
// currency symbol, the way the rest of the interface shows money.
func FormatAmount(amount float64, currency string) string {
	return humanize.FormatFloat("#,###.##", amount) + CurrencySymbol(currency)
}

// FormatTransaction renders the amount of a row.
func FormatTransaction(t *model.Transaction, userCurrency string) string {
	amount, currency := t.DisplayAmount(userCurrency)
	return FormatAmount(amount.InexactFloat64(), currency)
}
