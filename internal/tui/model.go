// Package tui is the interactive transaction browser, a paged table whose
// view lives in the session query string.
package tui

import (
	"context"
	"net/url"

	"github.com/Veraticus/expensy/internal/dashboard"
	"github.com/Veraticus/expensy/internal/query"
	"github.com/Veraticus/expensy/internal/store"
	"github.com/Veraticus/expensy/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// PageLoader fetches one projected page of a listing.
type PageLoader interface {
	FetchPage(ctx context.Context, params url.Values, page, pageSize int, useCache bool) (store.Page, error)
}

type column struct {
	title string
	field string
	width int
}

var columns = []column{
	{title: "Date", field: query.KeyPurchaseDate, width: 12},
	{title: "Store", field: query.KeyStore, width: 28},
	{title: "Category", field: query.KeyCategory, width: 22},
	{title: "Amount", field: query.KeyTransactionAmount, width: 14},
	{title: "Status", field: query.KeyStatus, width: 15},
}

// chromeHeight is the number of lines drawn around the table.
const chromeHeight = 8

// Model is the browser state.
type Model struct {
	ctx     context.Context
	loader  PageLoader
	sync    *query.Synchronizer
	pending *query.View
	err     error
	theme   themes.Theme
	keymap  KeyMap
	help    help.Model
	table   table.Model
	input   textinput.Model
	config  Config
	page    store.Page
	mode    inputMode
	seq     int
	column  int
	badge   int
	width   int
	height  int

	loading  bool
	quitting bool
}

// New creates a browser reading pages through loader. The view is restored
// from nav and every change is written back to it.
func New(ctx context.Context, loader PageLoader, nav query.Navigator, opts ...Option) *Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Model{
		ctx:    ctx,
		loader: loader,
		config: cfg,
		theme:  cfg.Theme,
		keymap: DefaultKeyMap(),
		help:   help.New(),
		input:  textinput.New(),
		width:  cfg.Width,
		height: cfg.Height,
	}
	m.sync = query.NewSynchronizer(nav, func(v query.View) {
		m.pending = &v
	})

	m.table = table.New(
		table.WithColumns(m.columns()),
		table.WithFocused(true),
		table.WithHeight(m.tableHeight()),
	)
	styles := table.DefaultStyles()
	styles.Header = m.theme.Header
	styles.Selected = m.theme.Selected
	m.table.SetStyles(styles)

	m.input.CharLimit = 64
	m.help.Width = cfg.Width
	return m
}

// Init restores the view and loads its page.
func (m *Model) Init() tea.Cmd {
	m.sync.Load()
	return m.flush()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table.SetHeight(m.tableHeight())
		return m, nil

	case pageLoadedMsg:
		return m, m.handlePage(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.ForceQuit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.mode != inputNone {
			return m, m.updateInput(msg)
		}
		return m, m.updateKeys(msg)
	}

	if m.mode != inputNone {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handlePage(msg pageLoadedMsg) tea.Cmd {
	if msg.seq != m.seq {
		return nil
	}
	m.loading = false
	if msg.err != nil {
		m.err = msg.err
		return nil
	}

	m.err = nil
	m.page = msg.page
	m.table.SetRows(m.rows())
	m.table.SetCursor(0)

	// A restored page past the end of a shrunken listing moves to the last page.
	if msg.page.TotalRows > 0 && msg.page.Number > msg.page.TotalPages {
		m.sync.SetPage(msg.page.TotalPages)
		return m.flush()
	}
	return nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) tea.Cmd {
	view := m.sync.View()

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.table.SetHeight(m.tableHeight())
		return nil

	case key.Matches(msg, m.keymap.NextPage):
		if view.Page < m.page.TotalPages {
			m.sync.SetPage(view.Page + 1)
		}
	case key.Matches(msg, m.keymap.PrevPage):
		if view.Page > 1 {
			m.sync.SetPage(view.Page - 1)
		}
	case key.Matches(msg, m.keymap.Home):
		if view.Page != 1 {
			m.sync.SetPage(1)
		}

	case key.Matches(msg, m.keymap.NextColumn):
		m.column = (m.column + 1) % len(columns)
		m.table.SetColumns(m.columns())
	case key.Matches(msg, m.keymap.PrevColumn):
		m.column = (m.column + len(columns) - 1) % len(columns)
		m.table.SetColumns(m.columns())
	case key.Matches(msg, m.keymap.CycleSort):
		m.sync.CycleSort(columns[m.column].field)
		m.table.SetColumns(m.columns())

	case key.Matches(msg, m.keymap.FilterStore):
		return m.startInput(inputStore)
	case key.Matches(msg, m.keymap.FilterDate):
		return m.startInput(inputDate)
	case key.Matches(msg, m.keymap.FilterAmount):
		return m.startInput(inputAmount)
	case key.Matches(msg, m.keymap.FilterCategory):
		return m.startInput(inputCategory)
	case key.Matches(msg, m.keymap.CycleStatus):
		filters := view.Filters.Clone()
		filters.Status = nextStatus(filters.Status)
		m.sync.SetFilters(filters)

	case key.Matches(msg, m.keymap.NextBadge):
		if n := len(m.sync.Badges()); n > 0 {
			m.badge = (m.badge + 1) % n
		}
	case key.Matches(msg, m.keymap.PrevBadge):
		if n := len(m.sync.Badges()); n > 0 {
			m.badge = (m.badge + n - 1) % n
		}
	case key.Matches(msg, m.keymap.ResetBadge):
		badges := m.sync.Badges()
		if m.badge < len(badges) {
			b := badges[m.badge]
			if err := m.sync.Reset(b.Key, b.SubKey); err != nil {
				m.err = err
			}
			m.table.SetColumns(m.columns())
		}
	case key.Matches(msg, m.keymap.ResetAll):
		m.sync.SetSort(query.SortConfig{})
		m.sync.SetFilters(query.InitialFilters())
		m.table.SetColumns(m.columns())

	case key.Matches(msg, m.keymap.Refresh):
		m.sync.SetPage(view.Page)

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return cmd
	}

	m.clampBadge()
	return m.flush()
}

func (m *Model) startInput(mode inputMode) tea.Cmd {
	m.mode = mode
	m.input.Prompt = mode.prompt()
	m.input.SetValue(inputValue(mode, m.sync.View().Filters, m.config.Categories))
	m.input.CursorEnd()
	m.table.Blur()
	return m.input.Focus()
}

func (m *Model) endInput() {
	m.mode = inputNone
	m.input.Blur()
	m.input.Reset()
	m.table.Focus()
}

func (m *Model) updateInput(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.Cancel):
		m.endInput()
		return nil
	case key.Matches(msg, m.keymap.Submit):
		filters, err := applyInput(m.mode, m.sync.View().Filters, m.input.Value(), m.config.Categories)
		if err != nil {
			m.err = err
			return nil
		}
		m.err = nil
		m.endInput()
		m.sync.SetFilters(filters)
		m.clampBadge()
		return m.flush()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// flush turns the view recorded by the last refetch into a page load.
func (m *Model) flush() tea.Cmd {
	if m.pending == nil {
		return nil
	}
	view := *m.pending
	m.pending = nil

	m.seq++
	m.loading = true
	seq := m.seq
	ctx, loader, size := m.ctx, m.loader, m.config.PageSize
	params := view.APIParams()

	return func() tea.Msg {
		page, err := loader.FetchPage(ctx, params, view.Page, size, false)
		return pageLoadedMsg{seq: seq, page: page, err: err}
	}
}

func (m *Model) clampBadge() {
	if n := len(m.sync.Badges()); m.badge >= n {
		m.badge = max(n-1, 0)
	}
}

func (m *Model) tableHeight() int {
	h := m.height - chromeHeight
	if m.help.ShowAll {
		h -= 5
	}
	return max(h, 3)
}

func (m *Model) columns() []table.Column {
	sort := m.sync.View().Sort
	out := make([]table.Column, len(columns))
	for i, c := range columns {
		title := c.title
		if sort.Field != nil && *sort.Field == c.field {
			if sort.Direction != nil && *sort.Direction == query.Descending {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		if i == m.column {
			title = "[" + title + "]"
		}
		out[i] = table.Column{Title: title, Width: c.width}
	}
	return out
}

func (m *Model) rows() []table.Row {
	rows := make([]table.Row, 0, len(m.page.Rows))
	for _, t := range m.page.Rows {
		if t == nil {
			rows = append(rows, table.Row{"…", "loading", "", "", ""})
			continue
		}
		category := t.Category()
		rows = append(rows, table.Row{
			t.PurchaseDate.DateString(),
			t.Merchant(),
			themes.GetCategoryIcon(category) + " " + category,
			dashboard.FormatTransaction(t, m.config.Currency),
			query.StatusLabel(&t.IsPending),
		})
	}
	return rows
}

// QueryView returns the view being shown.
func (m *Model) QueryView() query.View {
	return m.sync.View()
}
