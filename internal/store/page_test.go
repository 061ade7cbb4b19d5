package store

import (
	"context"
	"fmt"
	"net/url"
	"testing"

	"github.com/Veraticus/expensy/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedRows(n int) []*model.Transaction {
	rows := make([]*model.Transaction, n)
	for i := range rows {
		rows[i] = txn(fmt.Sprintf("r%d", i))
	}
	return rows
}

func TestState_FetchPage(t *testing.T) {
	backend := newFakeBackend(numberedRows(25), 10)
	state := New(backend)
	params := url.Values{"sort": {`{"field":"purchaseDate","direction":"desc"}`}}

	page, err := state.FetchPage(context.Background(), params, 2, 5, false)
	require.NoError(t, err)

	require.Len(t, backend.queries, 1)
	assert.Equal(t, 5, backend.queries[0].Index)
	assert.Equal(t, 10, backend.queries[0].Length)
	assert.Equal(t, params, backend.queries[0].Params)

	assert.Equal(t, 2, page.Number)
	assert.Equal(t, 5, page.TotalPages)
	assert.Equal(t, 25, page.TotalRows)
	assert.Equal(t, []string{"r5", "r6", "r7", "r8", "r9"}, ids(page.Rows))
	assert.Zero(t, page.Pending())
}

func TestState_FetchPageStopsAtListingEnd(t *testing.T) {
	state := New(newFakeBackend(numberedRows(23), 10))

	page, err := state.FetchPage(context.Background(), nil, 5, 5, false)
	require.NoError(t, err)

	assert.Equal(t, 5, page.TotalPages)
	assert.Equal(t, []string{"r20", "r21", "r22"}, ids(page.Rows))
	assert.Zero(t, page.Pending())
}

func TestState_FetchPageRejectsPageLargerThanChunk(t *testing.T) {
	state := New(newFakeBackend(numberedRows(25), 10))

	_, err := state.FetchPage(context.Background(), nil, 1, 20, false)
	require.ErrorIs(t, err, ErrPageExceedsChunk)
}

func TestState_FetchPageChecksHeldChunkSizeFirst(t *testing.T) {
	backend := newFakeBackend(numberedRows(25), 10)
	state := New(backend)

	_, err := state.FetchPage(context.Background(), nil, 1, 5, false)
	require.NoError(t, err)
	require.Equal(t, 1, backend.count("transactions"))

	_, err = state.FetchPage(context.Background(), nil, 1, 20, false)
	require.ErrorIs(t, err, ErrPageExceedsChunk)
	assert.Equal(t, 1, backend.count("transactions"))
	assert.Len(t, backend.queries, 1)
}

func TestState_FetchPageUsesFreshCache(t *testing.T) {
	backend := newFakeBackend(numberedRows(25), 10)
	state := New(backend)

	_, err := state.FetchPage(context.Background(), nil, 1, 5, false)
	require.NoError(t, err)
	page, err := state.FetchPage(context.Background(), nil, 2, 5, true)
	require.NoError(t, err)

	assert.Equal(t, 1, backend.count("transactions"))
	assert.Equal(t, []string{"r5", "r6", "r7", "r8", "r9"}, ids(page.Rows))
}

func TestState_FetchPageError(t *testing.T) {
	backend := newFakeBackend(numberedRows(5), 10)
	backend.setErr(assert.AnError)
	state := New(backend)

	_, err := state.FetchPage(context.Background(), nil, 1, 5, false)
	require.ErrorIs(t, err, assert.AnError)
}
