package store

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/expensy/internal/model"
)

// StalenessThreshold is the age after which held transactions are discarded
// instead of merged. Age is measured from the last wholesale replacement.
const StalenessThreshold = 24 * time.Hour

// ErrShapeMismatch is returned when a payload cannot be laid over the held
// chunks because the two disagree on what a global index means.
var ErrShapeMismatch = errors.New("chunk shape mismatch")

// MergeTransactions reconciles a freshly fetched payload with the cache held
// for the same listing.
//
// When nothing usable is held (no cache, another listing, or a cache older
// than StalenessThreshold) the payload replaces it and the timestamp becomes
// now. Otherwise chunks are overlaid: a nil chunk or nil row in the payload
// keeps what was held, and chunks the payload does not reach are preserved.
// An incremental merge keeps the previous FetchTimestamp. A merge that fails
// degrades to replacement; the error is logged, never returned.
func MergeTransactions(prev *TransactionsCache, next *model.TransactionsPayload, listing string, now time.Time) (merged *TransactionsCache) {
	if next == nil {
		return prev
	}

	replace := func() *TransactionsCache {
		return &TransactionsCache{
			ChunkSize:              next.ChunkSize,
			TotalTransactionsCount: next.TotalTransactionsCount,
			Transactions:           next.Transactions,
			FetchTimestamp:         now,
			Listing:                listing,
		}
	}

	if prev == nil || prev.Transactions == nil || prev.Listing != listing ||
		now.Sub(prev.FetchTimestamp) > StalenessThreshold {
		return replace()
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Transaction merge panicked, replacing cache", "panic", r)
			merged = replace()
		}
	}()

	chunks, err := overlayChunks(prev, next)
	if err != nil {
		slog.Warn("Failed to merge transactions, replacing cache",
			"error", err,
			"listing", listing)
		return replace()
	}

	return &TransactionsCache{
		ChunkSize:              next.ChunkSize,
		TotalTransactionsCount: next.TotalTransactionsCount,
		Transactions:           chunks,
		FetchTimestamp:         prev.FetchTimestamp,
		Listing:                listing,
	}
}

func overlayChunks(prev *TransactionsCache, next *model.TransactionsPayload) ([][]*model.Transaction, error) {
	if next.ChunkSize != prev.ChunkSize {
		return nil, fmt.Errorf("%w: chunk size %d, held %d", ErrShapeMismatch, next.ChunkSize, prev.ChunkSize)
	}
	for i, chunk := range next.Transactions {
		if next.ChunkSize > 0 && len(chunk) > next.ChunkSize {
			return nil, fmt.Errorf("%w: chunk %d has %d rows, chunk size %d", ErrShapeMismatch, i, len(chunk), next.ChunkSize)
		}
	}

	out := make([][]*model.Transaction, max(len(prev.Transactions), len(next.Transactions)))
	for i := range out {
		var held []*model.Transaction
		if i < len(prev.Transactions) {
			held = prev.Transactions[i]
		}

		if i >= len(next.Transactions) || next.Transactions[i] == nil {
			out[i] = held
			continue
		}

		incoming := next.Transactions[i]
		chunk := make([]*model.Transaction, len(incoming))
		for j, txn := range incoming {
			if txn == nil && j < len(held) && held[j] != nil {
				chunk[j] = held[j]
				continue
			}
			chunk[j] = txn
		}
		out[i] = chunk
	}

	return out, nil
}
