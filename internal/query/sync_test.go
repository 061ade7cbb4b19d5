package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	views []View
}

func (r *recorder) refetch(v View) {
	r.views = append(r.views, v)
}

func newSynchronizer(t *testing.T, raw string) (*Synchronizer, *MemoryNavigator, *recorder) {
	t.Helper()
	nav, err := NewMemoryNavigator(raw)
	require.NoError(t, err)
	rec := &recorder{}
	return NewSynchronizer(nav, rec.refetch), nav, rec
}

func TestLoadWritesDefaultsWhenEmpty(t *testing.T) {
	sync, nav, rec := newSynchronizer(t, "")

	view := sync.Load()

	assert.Equal(t, DefaultView(), view)
	query := nav.Query()
	assert.True(t, query.Has(ParamFilter))
	assert.True(t, query.Has(ParamSort))
	assert.False(t, query.Has(ParamPage))
	require.Len(t, rec.views, 1)
	assert.Equal(t, DefaultView(), rec.views[0])
}

func TestLoadDecodesExistingQuery(t *testing.T) {
	initial := Encode(View{
		Filters: FilterState{Store: "cafe", Category: []int{2}},
		Sort:    SortBy("store", Descending),
		Page:    3,
	})
	sync, nav, rec := newSynchronizer(t, initial.Encode())

	view := sync.Load()

	assert.Equal(t, "cafe", view.Filters.Store)
	assert.Equal(t, 3, view.Page)
	// The query string is left as the user gave it.
	assert.Equal(t, initial.Encode(), nav.String())
	require.Len(t, rec.views, 1)
	assert.Equal(t, view, rec.views[0])
}

func TestFilterAndSortChangesResetPage(t *testing.T) {
	sync, nav, rec := newSynchronizer(t, "")
	sync.Load()

	sync.SetPage(3)
	assert.Equal(t, "3", nav.Query().Get(ParamPage))

	sync.SetFilters(FilterState{Store: "gas", Category: []int{}})
	assert.Equal(t, 1, sync.View().Page)
	assert.False(t, nav.Query().Has(ParamPage))

	sync.SetPage(2)
	sync.CycleSort("purchaseDate")
	assert.Equal(t, 1, sync.View().Page)
	assert.Equal(t, SortBy("purchaseDate", Ascending), sync.View().Sort)

	// Load, SetPage, SetFilters, SetPage, CycleSort.
	assert.Len(t, rec.views, 5)
	assert.Equal(t, Decode(nav.Query()), rec.views[len(rec.views)-1])
}

func TestSetPageClamps(t *testing.T) {
	sync, _, _ := newSynchronizer(t, "")
	sync.SetPage(-4)
	assert.Equal(t, 1, sync.View().Page)
}

func TestSortCycle(t *testing.T) {
	var sort SortConfig
	sort = sort.Cycle("store")
	assert.Equal(t, SortBy("store", Ascending), sort)
	sort = sort.Cycle("store")
	assert.Equal(t, SortBy("store", Descending), sort)
	sort = sort.Cycle("store")
	assert.False(t, sort.IsSet())

	sort = SortBy("store", Descending).Cycle("purchaseDate")
	assert.Equal(t, SortBy("purchaseDate", Ascending), sort)
}

func TestResetBadgeIsolation(t *testing.T) {
	full := FilterState{
		PurchaseDate:      DateRange{Start: strPtr("2024-01-01"), End: strPtr("2024-01-31")},
		TransactionAmount: AmountRange{Min: floatPtr(5), Max: floatPtr(50)},
		Category:          []int{1},
		Store:             "bakery",
		Status:            boolPtr(false),
	}
	sortConfig := SortBy("store", Ascending)

	badges := ChangedFilters(InitialFilters(), full, sortConfig)
	require.Len(t, badges, 8)

	for _, badge := range badges {
		t.Run(badge.String(), func(t *testing.T) {
			sync, nav, _ := newSynchronizer(t, "")
			sync.SetFilters(full)
			sync.SetSort(sortConfig)

			require.NoError(t, sync.Reset(badge.Key, badge.SubKey))

			remaining := sync.Badges()
			assert.Len(t, remaining, len(badges)-1)
			assert.NotContains(t, remaining, badge)
			for _, other := range badges {
				if other != badge {
					assert.Contains(t, remaining, other)
				}
			}
			// The query string follows.
			decoded := Decode(nav.Query())
			assert.Equal(t, remaining, ChangedFilters(InitialFilters(), decoded.Filters, decoded.Sort))
		})
	}
}

func TestResetUnknownKey(t *testing.T) {
	sync, _, rec := newSynchronizer(t, "")
	assert.Error(t, sync.Reset("merchantType", ""))
	assert.Error(t, sync.Reset(KeyPurchaseDate, "middle"))
	assert.Empty(t, rec.views)
}

func TestBadgeOrder(t *testing.T) {
	f := FilterState{
		Status:            boolPtr(true),
		Store:             "x",
		Category:          []int{4, 9},
		TransactionAmount: AmountRange{Max: floatPtr(3)},
		PurchaseDate:      DateRange{Start: strPtr("2024-06-01")},
	}
	badges := ChangedFilters(InitialFilters(), f, SortBy("store", Descending))

	keys := make([]string, len(badges))
	for i, b := range badges {
		keys[i] = b.Key
	}
	assert.Equal(t, []string{KeySort, KeyPurchaseDate, KeyTransactionAmount, KeyCategory, KeyStore, KeyStatus}, keys)
	assert.Equal(t, "Sort: store - desc", badges[0].String())
	assert.Equal(t, "purchaseDate start: 2024-06-01", badges[1].String())
	assert.Equal(t, "category: 4,9", badges[3].String())
	assert.Equal(t, "status: Pre-Authorized", badges[5].String())
}

func TestIsInitial(t *testing.T) {
	assert.True(t, InitialFilters().IsInitial())
	assert.True(t, FilterState{}.IsInitial())
	assert.False(t, FilterState{Store: "a"}.IsInitial())
}

func TestMemoryNavigatorCopies(t *testing.T) {
	nav, err := NewMemoryNavigator("a=1")
	require.NoError(t, err)

	q := nav.Query()
	q.Set("a", "2")
	assert.Equal(t, "1", nav.Query().Get("a"))

	nav.Navigate(url.Values{"b": {"3"}})
	assert.Equal(t, "b=3", nav.String())
}
