package query

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"
)

// Query string parameters.
const (
	ParamFilter = "filter"
	ParamSort   = "sort"
	ParamPage   = "page"
)

// View is everything the query string carries for the transaction table.
type View struct {
	Sort    SortConfig
	Filters FilterState
	Page    int
}

// DefaultView is the table with no filters, no sort, on the first page.
func DefaultView() View {
	return View{Filters: InitialFilters(), Page: 1}
}

// Encode renders v as query parameters. The page is omitted when it is 1.
func Encode(v View) url.Values {
	values := v.APIParams()
	if v.Page > 1 {
		values.Set(ParamPage, strconv.Itoa(v.Page))
	}
	return values
}

// APIParams renders the filter and sort parameters forwarded to
// list-transactions. They also identify the listing in the cache.
func (v View) APIParams() url.Values {
	filters := v.Filters.Clone()
	filterJSON, err := json.Marshal(filters)
	if err != nil {
		slog.Error("Failed to encode filters", "error", err)
		filterJSON = []byte("{}")
	}
	sortJSON, err := json.Marshal(v.Sort)
	if err != nil {
		slog.Error("Failed to encode sort", "error", err)
		sortJSON = []byte("{}")
	}

	values := url.Values{}
	values.Set(ParamFilter, string(filterJSON))
	values.Set(ParamSort, string(sortJSON))
	return values
}

// Decode reads a view from query parameters. Missing or malformed parts fall
// back to their defaults individually; filters merge per key and per range
// bound over InitialFilters. Decoding never fails.
func Decode(values url.Values) View {
	filters, errs := decodeFilters(values.Get(ParamFilter))
	for _, err := range errs {
		slog.Warn("Ignoring filter parameter", "error", err)
	}

	sort, err := decodeSort(values.Get(ParamSort))
	if err != nil {
		slog.Warn("Ignoring sort parameter", "error", err)
	}

	return View{
		Filters: filters,
		Sort:    sort,
		Page:    decodePage(values.Get(ParamPage)),
	}
}

func decodePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// HasView reports whether values carry any table parameter.
func HasView(values url.Values) bool {
	for _, key := range []string{ParamFilter, ParamSort, ParamPage} {
		if values.Has(key) {
			return true
		}
	}
	return false
}
