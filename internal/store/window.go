package store

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/expensy/internal/model"
)

// ErrPageExceedsChunk is returned for a page size that would make one page
// span more than one chunk.
var ErrPageExceedsChunk = errors.New("page size exceeds chunk size")

// VisibleTransactions projects the rows of one page out of the cache. The
// result always has pageSize entries unless the cache is nil; nil entries are
// pending markers for rows not fetched yet.
//
// The page is addressed within the single chunk holding its first row. Rows
// that fall past the end of that chunk, or anywhere in an absent chunk, stay
// pending.
func VisibleTransactions(cache *TransactionsCache, page, pageSize int) []*model.Transaction {
	if cache == nil || cache.Transactions == nil || pageSize <= 0 {
		return []*model.Transaction{}
	}
	page = max(page, 1)

	rows := make([]*model.Transaction, pageSize)
	if cache.ChunkSize <= 0 {
		return rows
	}

	start := (page - 1) * pageSize
	chunkIndex := start / cache.ChunkSize
	if chunkIndex >= len(cache.Transactions) {
		return rows
	}
	chunk := cache.Transactions[chunkIndex]
	if chunk == nil {
		return rows
	}

	base := chunkIndex * cache.ChunkSize
	for i := range rows {
		offset := start + i - base
		if offset >= len(chunk) {
			break
		}
		rows[i] = chunk[offset]
	}
	return rows
}

// Pager turns page numbers into fetch windows for a fixed page size.
type Pager struct {
	PageSize  int
	ChunkSize int
}

// NewPager validates that every page fits in a chunk. Pages that straddle a
// chunk boundary are allowed but their tail renders as pending, so a warning
// is logged when chunkSize is not a multiple of pageSize.
func NewPager(pageSize, chunkSize int) (Pager, error) {
	if pageSize <= 0 {
		return Pager{}, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	if chunkSize > 0 && pageSize > chunkSize {
		return Pager{}, fmt.Errorf("%w: %d > %d", ErrPageExceedsChunk, pageSize, chunkSize)
	}
	if chunkSize > 0 && chunkSize%pageSize != 0 {
		slog.Warn("Page size does not divide chunk size; rows past a chunk boundary show as pending",
			"page_size", pageSize,
			"chunk_size", chunkSize)
	}
	return Pager{PageSize: pageSize, ChunkSize: chunkSize}, nil
}

// FetchWindow returns the index and length to request for page. Two pages
// are requested so the next page is usually already held.
func (p Pager) FetchWindow(page int) (index, length int) {
	page = max(page, 1)
	return (page - 1) * p.PageSize, p.PageSize * 2
}

// TotalPages is the number of pages needed for total rows, at least one.
func (p Pager) TotalPages(total int) int {
	if total <= 0 || p.PageSize <= 0 {
		return 1
	}
	return (total + p.PageSize - 1) / p.PageSize
}
