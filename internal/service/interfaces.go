// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/Veraticus/expensy/internal/model"
)

// TransactionQuery selects a window of the transaction listing. Params holds
// the filter and sort parameters of the listing; Index and Length select rows
// within it.
type TransactionQuery struct {
	Params url.Values
	Index  int
	Length int
}

// Listing identifies the filtered, sorted listing the query reads from. Two
// queries with the same listing address the same global row indices.
func (q TransactionQuery) Listing() string {
	return q.Params.Encode()
}

// Values renders the full query string of list-transactions.
func (q TransactionQuery) Values() url.Values {
	v := url.Values{}
	for key, vals := range q.Params {
		v[key] = append([]string(nil), vals...)
	}
	v.Set("index", strconv.Itoa(q.Index))
	v.Set("length", strconv.Itoa(q.Length))
	return v
}

// Key identifies the request for de-duplication.
func (q TransactionQuery) Key() string {
	return q.Values().Encode()
}

// Backend is the read side of the REST API the state layer caches.
type Backend interface {
	ListTransactions(ctx context.Context, q TransactionQuery) (*model.TransactionsPayload, error)
	GetUserCategories(ctx context.Context) ([]model.Category, error)
	ListRecurringTransactions(ctx context.Context) ([]model.RecurringTransaction, error)
	GetMonthlySpendingHistory(ctx context.Context) (model.SpendingHistory, error)
}

// TransactionEditor submits edits of fetched transactions.
type TransactionEditor interface {
	UpdateTransaction(ctx context.Context, update model.TransactionUpdate) error
	DeleteTransaction(ctx context.Context, transactionID string) error
}

// RecurringEditor manages recurring transactions.
type RecurringEditor interface {
	CreateRecurringTransaction(ctx context.Context, in model.RecurringInput) error
	UpdateRecurringTransaction(ctx context.Context, in model.RecurringInput) error
	DeleteRecurringTransaction(ctx context.Context, id int) error
}

// SessionStore persists serialized client state between runs.
type SessionStore interface {
	SaveSnapshot(ctx context.Context, name string, data []byte) error
	// LoadSnapshot returns common.ErrNotFound when nothing was saved.
	LoadSnapshot(ctx context.Context, name string) ([]byte, error)
	DeleteSnapshot(ctx context.Context, name string) error
	Close() error
}

// ReportWriter exports a spending report to an external destination.
type ReportWriter interface {
	Write(ctx context.Context, report *Report) error
}

// Report is everything an export needs, taken from the cached state.
type Report struct {
	GeneratedAt  time.Time
	User         model.User
	History      model.SpendingHistory
	Categories   []model.Category
	Transactions []model.Transaction
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// WithDefaults fills unset fields.
func (o RetryOptions) WithDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = 100 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.Multiplier <= 0 {
		o.Multiplier = 2.0
	}
	return o
}
