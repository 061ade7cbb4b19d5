package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/Veraticus/expensy/internal/model"
	"github.com/Veraticus/expensy/internal/service"
	"golang.org/x/sync/singleflight"
)

// State is the application state shared by every view. Each slot is replaced
// under the lock; concurrent writers to the same slot are last-write-wins.
type State struct {
	backend service.Backend
	now     func() time.Time
	group   singleflight.Group

	mu           sync.RWMutex
	user         *model.User
	transactions *TransactionsCache
	categories   *Entry[[]model.Category]
	recurring    *Entry[[]model.RecurringTransaction]
	history      *Entry[model.SpendingHistory]
	setup        model.SetupData
	viewQuery    string
}

// Option configures a State.
type Option func(*State)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *State) {
		s.now = now
	}
}

// New creates an empty state that fetches from backend.
func New(backend service.Backend, opts ...Option) *State {
	s := &State{
		backend: backend,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resetLocked()
	return s
}

// resetLocked restores every slot to its initial value. Callers hold mu or
// own s exclusively.
func (s *State) resetLocked() {
	s.user = nil
	s.transactions = nil
	s.categories = nil
	s.recurring = nil
	s.history = &Entry[model.SpendingHistory]{Value: model.SpendingHistory{"0": 0}}
	s.setup = model.InitialSetupData()
	s.viewQuery = ""
}

// Reset clears everything, as on logout.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// User returns the signed-in user, or nil.
func (s *State) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// SetUser replaces the signed-in user.
func (s *State) SetUser(u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil {
		s.user = nil
		return
	}
	copied := *u
	s.user = &copied
}

// Transactions returns the held transaction cache. The value is shared and
// must not be modified.
func (s *State) Transactions() *TransactionsCache {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transactions
}

// Categories returns the held categories and whether any were fetched.
func (s *State) Categories() ([]model.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.categories == nil {
		return nil, false
	}
	return s.categories.Value, true
}

// RecurringTransactions returns the held recurring transactions and whether
// any were fetched.
func (s *State) RecurringTransactions() ([]model.RecurringTransaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.recurring == nil {
		return nil, false
	}
	return s.recurring.Value, true
}

// SpendingHistory returns the held monthly spending history.
func (s *State) SpendingHistory() model.SpendingHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Value
}

// SetupData returns the setup wizard state.
func (s *State) SetupData() model.SetupData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.setup
}

// SetSetupData replaces the setup wizard state.
func (s *State) SetSetupData(d model.SetupData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setup = d
}

// ViewQuery is the last query string of the transaction browser.
func (s *State) ViewQuery() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewQuery
}

// SetViewQuery records the query string of the transaction browser.
func (s *State) SetViewQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewQuery = q
}

// FetchAndSetTransactions fetches a window of a listing and merges it into
// the cache. With useCache the fetch is skipped while the held listing is
// fresh. Errors leave the cache untouched.
func (s *State) FetchAndSetTransactions(ctx context.Context, q service.TransactionQuery, useCache bool) error {
	listing := q.Listing()

	s.mu.RLock()
	held := s.transactions
	s.mu.RUnlock()

	present := held != nil && held.Listing == listing
	var fetchedAt time.Time
	if present {
		fetchedAt = held.FetchTimestamp
	}
	if !ShouldFetch(present, fetchedAt, useCache, RefetchThreshold, s.now()) {
		slog.Debug("Using cached transactions", "listing", listing)
		return nil
	}

	v, err := s.coalesce(ctx, "transactions?"+q.Key(), func(ctx context.Context) (any, error) {
		return s.backend.ListTransactions(ctx, q)
	})
	if err != nil {
		slog.Error("Failed to fetch transactions",
			"error", err,
			"index", q.Index,
			"length", q.Length)
		return fmt.Errorf("fetch transactions: %w", err)
	}

	payload, _ := v.(*model.TransactionsPayload)
	s.mu.Lock()
	s.transactions = MergeTransactions(s.transactions, payload, listing, s.now())
	s.mu.Unlock()
	return nil
}

// FetchAndSetCategories refreshes the user's categories.
func (s *State) FetchAndSetCategories(ctx context.Context, useCache bool) error {
	return fetchAndSet(ctx, s, "categories", &s.categories, useCache, s.backend.GetUserCategories)
}

// FetchAndSetRecurringTransactions refreshes the recurring transactions.
func (s *State) FetchAndSetRecurringTransactions(ctx context.Context, useCache bool) error {
	return fetchAndSet(ctx, s, "recurring-transactions", &s.recurring, useCache, s.backend.ListRecurringTransactions)
}

// FetchAndSetSpendingHistory refreshes the monthly spending history.
func (s *State) FetchAndSetSpendingHistory(ctx context.Context, useCache bool) error {
	return fetchAndSet(ctx, s, "spending-history", &s.history, useCache, s.backend.GetMonthlySpendingHistory)
}

func fetchAndSet[T any](ctx context.Context, s *State, name string, slot **Entry[T], useCache bool, fetch func(context.Context) (T, error)) error {
	s.mu.RLock()
	held := *slot
	s.mu.RUnlock()

	var fetchedAt time.Time
	if held != nil {
		fetchedAt = held.FetchTimestamp
	}
	if !ShouldFetch(held != nil, fetchedAt, useCache, RefetchThreshold, s.now()) {
		slog.Debug("Using cached data", "entity", name)
		return nil
	}

	v, err := s.coalesce(ctx, name, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		slog.Error("Failed to fetch", "entity", name, "error", err)
		return fmt.Errorf("fetch %s: %w", name, err)
	}

	value, _ := v.(T)
	s.mu.Lock()
	*slot = &Entry[T]{Value: value, FetchTimestamp: s.now()}
	s.mu.Unlock()
	return nil
}

// coalesce runs fn once for concurrent callers sharing key. The shared call
// is detached from any single caller's cancellation; a caller whose ctx ends
// first gets ctx.Err() and must not store the result.
func (s *State) coalesce(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return fn(shared)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return res.Val, nil
	}
}

// SyncTransactions walks a listing from the first row to the last, length
// rows per request, merging everything into the cache. progress, if set, is
// called after every window with the rows requested so far and the total.
func (s *State) SyncTransactions(ctx context.Context, params url.Values, length int, progress func(done, total int)) error {
	if length <= 0 {
		return fmt.Errorf("sync window must be positive, got %d", length)
	}

	for index := 0; ; index += length {
		q := service.TransactionQuery{Params: params, Index: index, Length: length}
		if err := s.FetchAndSetTransactions(ctx, q, false); err != nil {
			return err
		}

		total := 0
		if held := s.Transactions(); held != nil {
			total = held.TotalTransactionsCount
		}
		done := min(index+length, total)
		if progress != nil {
			progress(done, total)
		}
		if done >= total {
			return nil
		}
	}
}

// SubmitTransactionEdit sends an edited copy of a transaction and refetches
// the window it was shown in.
func (s *State) SubmitTransactionEdit(ctx context.Context, editor service.TransactionEditor, update model.TransactionUpdate, window service.TransactionQuery) error {
	if err := editor.UpdateTransaction(ctx, update); err != nil {
		return err
	}
	return s.FetchAndSetTransactions(ctx, window, false)
}

// DeleteTransaction deletes a transaction and refetches the window it was
// shown in.
func (s *State) DeleteTransaction(ctx context.Context, editor service.TransactionEditor, transactionID string, window service.TransactionQuery) error {
	if err := editor.DeleteTransaction(ctx, transactionID); err != nil {
		return err
	}
	return s.FetchAndSetTransactions(ctx, window, false)
}

// CreateRecurringTransaction creates a recurring transaction and refreshes
// the list.
func (s *State) CreateRecurringTransaction(ctx context.Context, editor service.RecurringEditor, in model.RecurringInput) error {
	if err := editor.CreateRecurringTransaction(ctx, in); err != nil {
		return err
	}
	return s.FetchAndSetRecurringTransactions(ctx, false)
}

// UpdateRecurringTransaction updates a recurring transaction and refreshes
// the list.
func (s *State) UpdateRecurringTransaction(ctx context.Context, editor service.RecurringEditor, in model.RecurringInput) error {
	if err := editor.UpdateRecurringTransaction(ctx, in); err != nil {
		return err
	}
	return s.FetchAndSetRecurringTransactions(ctx, false)
}

// DeleteRecurringTransaction deletes a recurring transaction and refreshes
// the list.
func (s *State) DeleteRecurringTransaction(ctx context.Context, editor service.RecurringEditor, id int) error {
	if err := editor.DeleteRecurringTransaction(ctx, id); err != nil {
		return err
	}
	return s.FetchAndSetRecurringTransactions(ctx, false)
}
