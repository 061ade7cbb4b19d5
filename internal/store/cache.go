// Package store holds the client-side state: cached server data, the rules
// deciding when to refetch it, and how freshly fetched transaction chunks
// are reconciled with what is already held.
package store

import (
	"time"

	"github.com/Veraticus/expensy/internal/model"
)

// TransactionsCache is the locally held view of one transaction listing.
// Transactions[c][o] is the row at global index c*ChunkSize+o. A nil chunk is
// absent; a nil row is a pending marker for data not fetched yet.
type TransactionsCache struct {
	FetchTimestamp         time.Time              `json:"fetchTimestamp"`
	Listing                string                 `json:"listing"`
	Transactions           [][]*model.Transaction `json:"transactions"`
	ChunkSize              int                    `json:"chunkSize"`
	TotalTransactionsCount int                    `json:"totalTransactionsCount"`
}

// Loaded returns every fetched row in global index order.
func (c *TransactionsCache) Loaded() []model.Transaction {
	if c == nil {
		return nil
	}
	out := make([]model.Transaction, 0, c.TotalTransactionsCount)
	for _, chunk := range c.Transactions {
		for _, txn := range chunk {
			if txn != nil {
				out = append(out, *txn)
			}
		}
	}
	return out
}

// LoadedCount is the number of non-pending rows held.
func (c *TransactionsCache) LoadedCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, chunk := range c.Transactions {
		for _, txn := range chunk {
			if txn != nil {
				n++
			}
		}
	}
	return n
}

// Find returns the cached row with the given id.
func (c *TransactionsCache) Find(id string) (*model.Transaction, bool) {
	if c == nil {
		return nil, false
	}
	for _, chunk := range c.Transactions {
		for _, txn := range chunk {
			if txn != nil && txn.ID == id {
				return txn, true
			}
		}
	}
	return nil, false
}

// Entry is a wholly replaced cache slot together with the time it was filled.
type Entry[T any] struct {
	FetchTimestamp time.Time `json:"fetchTimestamp"`
	Value          T         `json:"value"`
}
