package query

import (
	"net/url"
	"sync"
)

// Navigator reads and replaces the current query string, the way a browser
// address bar would.
type Navigator interface {
	Query() url.Values
	Navigate(values url.Values)
}

// RefetchFunc is called with the new view after every change.
type RefetchFunc func(View)

// Synchronizer keeps the table view, the query string, and the data in step.
// Every change is written to the navigator and then handed to refetch.
type Synchronizer struct {
	nav     Navigator
	refetch RefetchFunc
	view    View
	mu      sync.Mutex
}

// NewSynchronizer returns a synchronizer over nav. refetch may be nil.
func NewSynchronizer(nav Navigator, refetch RefetchFunc) *Synchronizer {
	return &Synchronizer{nav: nav, refetch: refetch, view: DefaultView()}
}

// Load reads the initial view from the query string. With no table
// parameters present the defaults are written back so the query string
// always reflects the view.
func (s *Synchronizer) Load() View {
	values := s.nav.Query()

	s.mu.Lock()
	if HasView(values) {
		s.view = Decode(values)
		s.mu.Unlock()
		s.notify(false)
	} else {
		s.view = DefaultView()
		s.mu.Unlock()
		s.notify(true)
	}
	return s.View()
}

// View returns a copy of the current view.
func (s *Synchronizer) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyView(s.view)
}

// Badges lists the active filters and sort.
func (s *Synchronizer) Badges() []Badge {
	v := s.View()
	return ChangedFilters(InitialFilters(), v.Filters, v.Sort)
}

// SetFilters replaces the filters and returns to the first page.
func (s *Synchronizer) SetFilters(filters FilterState) {
	s.update(func(v *View) {
		v.Filters = filters.Clone()
		v.Page = 1
	})
}

// SetSort replaces the sort and returns to the first page.
func (s *Synchronizer) SetSort(sort SortConfig) {
	s.update(func(v *View) {
		v.Sort = SortConfig{Field: clonePtr(sort.Field), Direction: clonePtr(sort.Direction)}
		v.Page = 1
	})
}

// CycleSort advances the sort of field.
func (s *Synchronizer) CycleSort(field string) {
	s.SetSort(s.View().Sort.Cycle(field))
}

// SetPage moves to page, clamped to at least 1.
func (s *Synchronizer) SetPage(page int) {
	s.update(func(v *View) {
		v.Page = max(page, 1)
	})
}

// Reset clears a badge: the sort for KeySort, otherwise the filter or range
// bound it names. Nothing else changes.
func (s *Synchronizer) Reset(key, subKey string) error {
	s.mu.Lock()
	next := copyView(s.view)
	if key == KeySort {
		next.Sort = SortConfig{}
	} else if err := next.Filters.ResetFilter(key, subKey); err != nil {
		s.mu.Unlock()
		return err
	}
	next.Page = 1
	s.view = next
	s.mu.Unlock()

	s.notify(true)
	return nil
}

func (s *Synchronizer) update(fn func(*View)) {
	s.mu.Lock()
	next := copyView(s.view)
	fn(&next)
	s.view = next
	s.mu.Unlock()

	s.notify(true)
}

func (s *Synchronizer) notify(write bool) {
	v := s.View()
	if write {
		s.nav.Navigate(Encode(v))
	}
	if s.refetch != nil {
		s.refetch(v)
	}
}

func copyView(v View) View {
	return View{
		Filters: v.Filters.Clone(),
		Sort:    SortConfig{Field: clonePtr(v.Sort.Field), Direction: clonePtr(v.Sort.Direction)},
		Page:    v.Page,
	}
}

// MemoryNavigator is a Navigator holding the query string in memory.
type MemoryNavigator struct {
	values url.Values
	mu     sync.Mutex
}

// NewMemoryNavigator starts from raw, an encoded query string.
func NewMemoryNavigator(raw string) (*MemoryNavigator, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, err
	}
	return &MemoryNavigator{values: values}, nil
}

// Query returns a copy of the current parameters.
func (n *MemoryNavigator) Query() url.Values {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := url.Values{}
	for k, v := range n.values {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Navigate replaces the parameters.
func (n *MemoryNavigator) Navigate(values url.Values) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.values = values
}

// String returns the encoded query string.
func (n *MemoryNavigator) String() string {
	return n.Query().Encode()
}
