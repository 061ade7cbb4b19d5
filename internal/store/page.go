package store

import (
	"context"
	"net/url"

	"github.com/Veraticus/expensy/internal/model"
	"github.com/Veraticus/expensy/internal/service"
)

// Page is one projected page of a listing.
type Page struct {
	Rows       []*model.Transaction
	Number     int
	TotalPages int
	TotalRows  int
}

// Pending counts the rows of the page not fetched yet.
func (p Page) Pending() int {
	n := 0
	for _, row := range p.Rows {
		if row == nil {
			n++
		}
	}
	return n
}

// FetchPage fetches the window holding page of the listing params selects and
// projects it. The page size must fit within the chunk size the backend
// reports.
func (s *State) FetchPage(ctx context.Context, params url.Values, page, pageSize int, useCache bool) (Page, error) {
	pager, err := NewPager(pageSize, 0)
	if err != nil {
		return Page{}, err
	}
	// A chunk size already held settles the check without a request.
	if held := s.Transactions(); held != nil && held.ChunkSize > 0 {
		if _, err := NewPager(pageSize, held.ChunkSize); err != nil {
			return Page{}, err
		}
	}
	page = max(page, 1)
	index, length := pager.FetchWindow(page)

	q := service.TransactionQuery{Params: params, Index: index, Length: length}
	if err := s.FetchAndSetTransactions(ctx, q, useCache); err != nil {
		return Page{}, err
	}

	cache := s.Transactions()
	if cache == nil {
		return Page{Number: page, TotalPages: 1}, nil
	}
	if pager, err = NewPager(pageSize, cache.ChunkSize); err != nil {
		return Page{}, err
	}

	// Rows held for another listing would not match the window.
	if cache.Listing != q.Listing() {
		return Page{Number: page, TotalPages: 1}, nil
	}
	// The last page stops at the end of the listing.
	rows := VisibleTransactions(cache, page, pageSize)
	if remaining := cache.TotalTransactionsCount - (page-1)*pageSize; remaining < len(rows) {
		rows = rows[:max(remaining, 0)]
	}
	return Page{
		Rows:       rows,
		Number:     page,
		TotalPages: pager.TotalPages(cache.TotalTransactionsCount),
		TotalRows:  cache.TotalTransactionsCount,
	}, nil
}
