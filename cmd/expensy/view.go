package main

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/Veraticus/expensy/internal/common"
	"github.com/Veraticus/expensy/internal/model"
	"github.com/Veraticus/expensy/internal/query"
	"github.com/Veraticus/expensy/internal/service"
	"github.com/Veraticus/expensy/internal/store"
	"github.com/spf13/cobra"
)

// sortFields are the columns the table can be sorted by.
var sortFields = []string{
	query.KeyPurchaseDate,
	query.KeyStore,
	query.KeyCategory,
	query.KeyTransactionAmount,
	query.KeyStatus,
}

// viewFlags edit the transaction table view kept in the session, the same
// one the browser shows.
type viewFlags struct {
	raw        string
	store      string
	from       string
	to         string
	status     string
	sort       string
	categories []string
	min        float64
	max        float64
	page       int
	reset      bool
}

func (f *viewFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.raw, "query", "", "start from a shared view query string")
	flags.BoolVar(&f.reset, "reset", false, "clear every filter and the sort first")
	flags.StringVar(&f.store, "store", "", "filter by store name (empty clears)")
	flags.StringSliceVar(&f.categories, "category", nil, "filter by category names or ids")
	flags.StringVar(&f.from, "from", "", "earliest purchase date, YYYY-MM-DD (empty clears)")
	flags.StringVar(&f.to, "to", "", "latest purchase date, YYYY-MM-DD (empty clears)")
	flags.Float64Var(&f.min, "min", 0, "smallest amount")
	flags.Float64Var(&f.max, "max", 0, "largest amount")
	flags.StringVar(&f.status, "status", "", "any, pending or authorized")
	flags.StringVar(&f.sort, "sort", "", "sort as field[:asc|desc], or none")
	flags.IntVar(&f.page, "page", 0, "page to show")
}

// load restores the session view, applies the flags that were set, and
// returns the result.
func (f *viewFlags) load(ctx context.Context, cmd *cobra.Command, a *app) (query.View, error) {
	nav := a.state.Navigator()
	if f.raw != "" {
		values, err := url.ParseQuery(strings.TrimPrefix(f.raw, "?"))
		if err != nil {
			return query.View{}, fmt.Errorf("%w: query %q: %w", common.ErrInvalidInput, f.raw, err)
		}
		nav.Navigate(values)
	}

	sync := query.NewSynchronizer(nav, nil)
	sync.Load()

	if f.reset {
		sync.SetSort(query.SortConfig{})
		sync.SetFilters(query.InitialFilters())
	}

	flags := cmd.Flags()
	filters := sync.View().Filters.Clone()
	changed := false

	if flags.Changed("store") {
		filters.Store = strings.TrimSpace(f.store)
		changed = true
	}
	if flags.Changed("category") {
		categories, err := a.categories(ctx)
		if err != nil {
			return query.View{}, err
		}
		ids, err := categoryIDs(f.categories, categories)
		if err != nil {
			return query.View{}, err
		}
		filters.Category = ids
		changed = true
	}
	for _, bound := range []struct {
		target **string
		name   string
		value  string
	}{
		{name: "from", value: f.from, target: &filters.PurchaseDate.Start},
		{name: "to", value: f.to, target: &filters.PurchaseDate.End},
	} {
		if !flags.Changed(bound.name) {
			continue
		}
		date, err := optionalDate(bound.value)
		if err != nil {
			return query.View{}, err
		}
		*bound.target = date
		changed = true
	}
	if flags.Changed("min") {
		v := f.min
		filters.TransactionAmount.Min = &v
		changed = true
	}
	if flags.Changed("max") {
		v := f.max
		filters.TransactionAmount.Max = &v
		changed = true
	}
	if flags.Changed("status") {
		status, err := parseStatus(f.status)
		if err != nil {
			return query.View{}, err
		}
		filters.Status = status
		changed = true
	}
	if changed {
		sync.SetFilters(filters)
	}

	if flags.Changed("sort") {
		sort, err := parseSort(f.sort)
		if err != nil {
			return query.View{}, err
		}
		sync.SetSort(sort)
	}
	if flags.Changed("page") {
		sync.SetPage(f.page)
	}
	return sync.View(), nil
}

func optionalDate(value string) (*string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		return nil, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", common.ErrInvalidInput, value)
	}
	return &value, nil
}

func parseStatus(value string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "any":
		return nil, nil
	case "pending", "pre-authorized":
		v := true
		return &v, nil
	case "authorized", "settled":
		v := false
		return &v, nil
	default:
		return nil, fmt.Errorf("%w: status %q is not any, pending or authorized", common.ErrInvalidInput, value)
	}
}

func parseSort(value string) (query.SortConfig, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "none" {
		return query.SortConfig{}, nil
	}

	field, dir, _ := strings.Cut(value, ":")
	if !slices.Contains(sortFields, field) {
		return query.SortConfig{}, fmt.Errorf("%w: cannot sort by %q; use one of %s",
			common.ErrInvalidInput, field, strings.Join(sortFields, ", "))
	}
	direction := query.Ascending
	if dir != "" {
		direction = query.Direction(strings.ToLower(dir))
		if !direction.Valid() {
			return query.SortConfig{}, fmt.Errorf("%w: sort direction %q is not asc or desc", common.ErrInvalidInput, dir)
		}
	}
	return query.SortBy(field, direction), nil
}

// categoryIDs resolves category names or ids.
func categoryIDs(values []string, categories []model.Category) ([]int, error) {
	ids := []int{}
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		category, err := findCategory(value, categories)
		if err != nil {
			return nil, err
		}
		ids = append(ids, category.ID)
	}
	return ids, nil
}

// findCategory matches a category by id or by name, ignoring case.
func findCategory(value string, categories []model.Category) (model.Category, error) {
	for _, c := range categories {
		if strings.EqualFold(c.CategoryName, value) || fmt.Sprint(c.ID) == value {
			return c, nil
		}
	}
	return model.Category{}, fmt.Errorf("%w: unknown category %q", common.ErrInvalidInput, value)
}

// pageWindow is the request that refreshes the page the view shows.
func pageWindow(view query.View, pageSize int) service.TransactionQuery {
	pager := store.Pager{PageSize: pageSize}
	index, length := pager.FetchWindow(view.Page)
	return service.TransactionQuery{Params: view.APIParams(), Index: index, Length: length}
}
