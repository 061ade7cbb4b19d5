package tui

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/Veraticus/expensy/internal/model"
	"github.com/Veraticus/expensy/internal/query"
	"github.com/Veraticus/expensy/internal/store"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loadCall struct {
	params url.Values
	page   int
	size   int
}

type fakeLoader struct {
	err   error
	calls []loadCall
	total int
}

func (f *fakeLoader) FetchPage(_ context.Context, params url.Values, page, size int, _ bool) (store.Page, error) {
	f.calls = append(f.calls, loadCall{params: params, page: page, size: size})
	if f.err != nil {
		return store.Page{}, f.err
	}

	rows := []*model.Transaction{}
	for i := (page - 1) * size; i < min(page*size, f.total); i++ {
		rows = append(rows, &model.Transaction{
			ID:           fmt.Sprintf("t%d", i),
			MerchantData: model.MerchantData{Name: fmt.Sprintf("Store %d", i)},
		})
	}
	return store.Page{
		Rows:       rows,
		Number:     page,
		TotalPages: max((f.total+size-1)/size, 1),
		TotalRows:  f.total,
	}, nil
}

func (f *fakeLoader) last(t *testing.T) loadCall {
	t.Helper()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// drain runs page loads until none is pending.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		loaded, ok := msg.(pageLoadedMsg)
		require.True(t, ok, "expected a page load, got %T", msg)
		_, cmd = m.Update(loaded)
	}
}

func press(t *testing.T, m *Model, k string) {
	t.Helper()
	_, cmd := m.Update(keyMsg(k))
	drain(t, m, cmd)
}

// typeText sends keys to the model without running the cursor commands the
// text input returns.
func typeText(m *Model, text string) {
	m.Update(keyMsg(text))
}

func newBrowser(t *testing.T, raw string, total int, opts ...Option) (*Model, *fakeLoader, *query.MemoryNavigator) {
	t.Helper()
	nav, err := query.NewMemoryNavigator(raw)
	require.NoError(t, err)
	loader := &fakeLoader{total: total}
	opts = append([]Option{WithPageSize(10)}, opts...)
	m := New(context.Background(), loader, nav, opts...)
	drain(t, m, m.Init())
	return m, loader, nav
}

func TestModel_InitLoadsFirstPage(t *testing.T) {
	m, loader, nav := newBrowser(t, "", 25)

	require.Len(t, loader.calls, 1)
	assert.Equal(t, 1, loader.calls[0].page)
	assert.Equal(t, 10, loader.calls[0].size)
	assert.Equal(t, query.DefaultView().APIParams(), loader.calls[0].params)

	values := nav.Query()
	assert.True(t, values.Has(query.ParamFilter))
	assert.True(t, values.Has(query.ParamSort))
	assert.False(t, values.Has(query.ParamPage))

	assert.Equal(t, 3, m.page.TotalPages)
	assert.Len(t, m.table.Rows(), 10)
	assert.False(t, m.loading)
}

func TestModel_InitRestoresView(t *testing.T) {
	raw := query.Encode(query.View{
		Filters: query.FilterState{Store: "cafe", Category: []int{}},
		Sort:    query.SortBy(query.KeyTransactionAmount, query.Descending),
		Page:    2,
	}).Encode()

	m, loader, nav := newBrowser(t, raw, 25)

	assert.Equal(t, 2, loader.last(t).page)
	assert.Equal(t, raw, nav.String())
	assert.Equal(t, "cafe", m.QueryView().Filters.Store)
	assert.Len(t, m.sync.Badges(), 2)
}

func TestModel_RestoredPagePastEndMovesToLastPage(t *testing.T) {
	raw := query.Encode(query.View{Filters: query.InitialFilters(), Page: 9}).Encode()

	m, loader, nav := newBrowser(t, raw, 25)

	require.Len(t, loader.calls, 2)
	assert.Equal(t, 9, loader.calls[0].page)
	assert.Equal(t, 3, loader.calls[1].page)
	assert.Equal(t, 3, m.QueryView().Page)
	assert.Equal(t, "3", nav.Query().Get(query.ParamPage))
}

func TestModel_Paging(t *testing.T) {
	m, loader, nav := newBrowser(t, "", 25)

	press(t, m, "l")
	assert.Equal(t, 2, loader.last(t).page)
	assert.Equal(t, "2", nav.Query().Get(query.ParamPage))

	press(t, m, "l")
	assert.Equal(t, 3, loader.last(t).page)

	calls := len(loader.calls)
	press(t, m, "l")
	assert.Len(t, loader.calls, calls, "no page after the last")

	press(t, m, "h")
	assert.Equal(t, 2, loader.last(t).page)

	press(t, m, "g")
	assert.Equal(t, 1, loader.last(t).page)
	assert.False(t, nav.Query().Has(query.ParamPage))

	calls = len(loader.calls)
	press(t, m, "h")
	assert.Len(t, loader.calls, calls, "no page before the first")
}

func TestModel_SortCyclesSelectedColumn(t *testing.T) {
	m, loader, _ := newBrowser(t, "", 25)
	press(t, m, "l")

	press(t, m, "tab")
	press(t, m, "s")

	view := m.QueryView()
	require.NotNil(t, view.Sort.Field)
	assert.Equal(t, query.KeyStore, *view.Sort.Field)
	assert.Equal(t, query.Ascending, *view.Sort.Direction)
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, 1, loader.last(t).page)
	assert.Contains(t, m.table.Columns()[1].Title, "▲")

	press(t, m, "s")
	assert.Equal(t, query.Descending, *m.QueryView().Sort.Direction)
	assert.Contains(t, m.table.Columns()[1].Title, "▼")

	press(t, m, "s")
	assert.False(t, m.QueryView().Sort.IsSet())

	press(t, m, "shift+tab")
	press(t, m, "s")
	assert.Equal(t, query.KeyPurchaseDate, *m.QueryView().Sort.Field)
}

func TestModel_StoreFilter(t *testing.T) {
	m, loader, nav := newBrowser(t, "", 25)
	press(t, m, "l")

	typeText(m, "/")
	assert.Equal(t, inputStore, m.mode)
	typeText(m, "cafe")
	press(t, m, "enter")

	assert.Equal(t, inputNone, m.mode)
	view := m.QueryView()
	assert.Equal(t, "cafe", view.Filters.Store)
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, view.APIParams(), loader.last(t).params)
	assert.Equal(t, query.Encode(view), nav.Query())
}

func TestModel_CancelInputKeepsFilters(t *testing.T) {
	m, loader, _ := newBrowser(t, "", 25)
	calls := len(loader.calls)

	typeText(m, "/")
	typeText(m, "cafe")
	press(t, m, "esc")

	assert.Equal(t, inputNone, m.mode)
	assert.Empty(t, m.QueryView().Filters.Store)
	assert.Len(t, loader.calls, calls)
}

func TestModel_InvalidInputStaysOpen(t *testing.T) {
	m, loader, _ := newBrowser(t, "", 25)
	calls := len(loader.calls)

	typeText(m, "a")
	typeText(m, "ten..5")
	press(t, m, "enter")

	assert.Equal(t, inputAmount, m.mode)
	require.Error(t, m.err)
	assert.Len(t, loader.calls, calls)
}

func TestModel_CategoryFilterByName(t *testing.T) {
	categories := []model.Category{{ID: 3, CategoryName: "Groceries"}, {ID: 5, CategoryName: "Fuel"}}
	m, _, _ := newBrowser(t, "", 25, WithCategories(categories))

	typeText(m, "c")
	typeText(m, "fuel, 3")
	press(t, m, "enter")

	assert.Equal(t, []int{5, 3}, m.QueryView().Filters.Category)

	typeText(m, "c")
	assert.Equal(t, "Fuel, Groceries", m.input.Value())
}

func TestModel_StatusCycle(t *testing.T) {
	m, _, _ := newBrowser(t, "", 25)

	press(t, m, "p")
	require.NotNil(t, m.QueryView().Filters.Status)
	assert.True(t, *m.QueryView().Filters.Status)

	press(t, m, "p")
	assert.False(t, *m.QueryView().Filters.Status)

	press(t, m, "p")
	assert.Nil(t, m.QueryView().Filters.Status)
}

func TestModel_ResetFocusedBadge(t *testing.T) {
	m, loader, _ := newBrowser(t, "", 25)

	typeText(m, "/")
	typeText(m, "cafe")
	press(t, m, "enter")
	press(t, m, "p")
	press(t, m, "s")
	require.Len(t, m.sync.Badges(), 3)

	// Badges list the sort first, then store and status.
	press(t, m, "]")
	press(t, m, "x")

	view := m.QueryView()
	assert.Empty(t, view.Filters.Store)
	assert.NotNil(t, view.Filters.Status)
	assert.True(t, view.Sort.IsSet())
	assert.Equal(t, view.APIParams(), loader.last(t).params)

	press(t, m, "X")
	assert.Empty(t, m.sync.Badges())
	assert.Equal(t, 0, m.badge)
}

func TestModel_DropsSupersededPages(t *testing.T) {
	m, loader, _ := newBrowser(t, "", 25)

	_, first := m.Update(keyMsg("l"))
	_, second := m.Update(keyMsg("l"))
	require.NotNil(t, first)
	require.NotNil(t, second)

	stale := first()
	drain(t, m, second)
	m.Update(stale)

	assert.Equal(t, 3, m.page.Number)
	assert.Equal(t, 3, loader.last(t).page)
}

func TestModel_LoadError(t *testing.T) {
	m, loader, _ := newBrowser(t, "", 25)
	loader.err = errors.New("backend down")

	press(t, m, "r")

	require.Error(t, m.err)
	assert.Contains(t, m.View(), "backend down")
	assert.Len(t, m.table.Rows(), 10, "rows from the last good page stay")
}

func TestModel_View(t *testing.T) {
	m, _, _ := newBrowser(t, "", 25)

	out := m.View()
	assert.Contains(t, out, "Transactions")
	assert.Contains(t, out, "25 matching")
	assert.Contains(t, out, "No filters")
	assert.Contains(t, out, "Page 1 of 3")
	assert.Contains(t, out, "Store 0")

	press(t, m, "p")
	assert.Contains(t, m.View(), "status: Pre-Authorized")
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newBrowser(t, "", 25)

	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}
