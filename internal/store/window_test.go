package store

import (
	"fmt"
	"testing"

	"github.com/Veraticus/expensy/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullChunk(chunkIndex, size int) []*model.Transaction {
	chunk := make([]*model.Transaction, size)
	for i := range chunk {
		chunk[i] = txn(fmt.Sprintf("r%d", chunkIndex*size+i))
	}
	return chunk
}

func TestVisibleTransactions_ProjectionBounds(t *testing.T) {
	cache := &TransactionsCache{
		ChunkSize:              75,
		TotalTransactionsCount: 150,
		Transactions:           [][]*model.Transaction{fullChunk(0, 75), fullChunk(1, 75)},
	}

	page := VisibleTransactions(cache, 3, 30)

	require.Len(t, page, 30)
	for i := 0; i < 15; i++ {
		require.NotNil(t, page[i], "slot %d", i)
		assert.Equal(t, fmt.Sprintf("r%d", 60+i), page[i].ID)
	}
	for i := 15; i < 30; i++ {
		assert.Nil(t, page[i], "slot %d lies past chunk 0 and must be pending", i)
	}
}

func TestVisibleTransactions(t *testing.T) {
	twoChunks := &TransactionsCache{
		ChunkSize:    4,
		Transactions: [][]*model.Transaction{fullChunk(0, 4), fullChunk(1, 4)},
	}

	tests := []struct {
		cache    *TransactionsCache
		name     string
		want     []string
		page     int
		pageSize int
	}{
		{name: "nil cache", cache: nil, page: 1, pageSize: 4, want: []string{}},
		{name: "first page", cache: twoChunks, page: 1, pageSize: 2, want: []string{"r0", "r1"}},
		{name: "second chunk", cache: twoChunks, page: 3, pageSize: 2, want: []string{"r4", "r5"}},
		{name: "page beyond all chunks", cache: twoChunks, page: 9, pageSize: 2, want: []string{"", ""}},
		{name: "page zero clamps to one", cache: twoChunks, page: 0, pageSize: 2, want: []string{"r0", "r1"}},
		// Rows past the addressed chunk stay pending; they are neither read
		// from the next chunk nor wrapped to the start of this one.
		{name: "page straddling two chunks", cache: twoChunks, page: 2, pageSize: 3, want: []string{"r3", "", ""}},
		{
			name:     "absent chunk",
			cache:    &TransactionsCache{ChunkSize: 2, Transactions: [][]*model.Transaction{fullChunk(0, 2), nil}},
			page:     2,
			pageSize: 2,
			want:     []string{"", ""},
		},
		{
			name:     "short tail chunk",
			cache:    &TransactionsCache{ChunkSize: 4, Transactions: [][]*model.Transaction{{txn("a"), txn("b"), txn("c")}}},
			page:     1,
			pageSize: 4,
			want:     []string{"a", "b", "c", ""},
		},
		{
			name:     "pending rows inside chunk",
			cache:    &TransactionsCache{ChunkSize: 4, Transactions: [][]*model.Transaction{{nil, txn("b"), nil, txn("d")}}},
			page:     1,
			pageSize: 4,
			want:     []string{"", "b", "", "d"},
		},
		{
			name:     "zero chunk size",
			cache:    &TransactionsCache{Transactions: [][]*model.Transaction{}},
			page:     1,
			pageSize: 2,
			want:     []string{"", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(VisibleTransactions(tt.cache, tt.page, tt.pageSize)))
		})
	}
}

func TestNewPager(t *testing.T) {
	_, err := NewPager(80, 75)
	assert.ErrorIs(t, err, ErrPageExceedsChunk)

	_, err = NewPager(0, 75)
	assert.Error(t, err)

	pager, err := NewPager(25, 75)
	require.NoError(t, err)

	index, length := pager.FetchWindow(3)
	assert.Equal(t, 50, index)
	assert.Equal(t, 50, length)

	assert.Equal(t, 1, pager.TotalPages(0))
	assert.Equal(t, 4, pager.TotalPages(76))
	assert.Equal(t, 3, pager.TotalPages(75))
}
