package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/expensy/internal/model"
	"github.com/Veraticus/expensy/internal/query"
)

const (
	rangeSeparator = ".."
	dateLayout     = "2006-01-02"
)

// applyInput returns filters with the text typed for mode applied.
func applyInput(mode inputMode, filters query.FilterState, value string, categories []model.Category) (query.FilterState, error) {
	out := filters.Clone()
	value = strings.TrimSpace(value)

	switch mode {
	case inputStore:
		out.Store = value
	case inputDate:
		start, end, err := parseRange(value, func(s string) (string, error) {
			if _, err := time.Parse(dateLayout, s); err != nil {
				return "", fmt.Errorf("%q is not a YYYY-MM-DD date", s)
			}
			return s, nil
		})
		if err != nil {
			return filters, err
		}
		if start != nil && end != nil && *start > *end {
			return filters, fmt.Errorf("start %s is after end %s", *start, *end)
		}
		out.PurchaseDate = query.DateRange{Start: start, End: end}
	case inputAmount:
		lo, hi, err := parseRange(value, func(s string) (float64, error) {
			v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
			if err != nil {
				return 0, fmt.Errorf("%q is not a number", s)
			}
			return v, nil
		})
		if err != nil {
			return filters, err
		}
		if lo != nil && hi != nil && *lo > *hi {
			return filters, fmt.Errorf("minimum %g is above maximum %g", *lo, *hi)
		}
		out.TransactionAmount = query.AmountRange{Min: lo, Max: hi}
	case inputCategory:
		ids, err := resolveCategories(value, categories)
		if err != nil {
			return filters, err
		}
		out.Category = ids
	default:
		return filters, fmt.Errorf("no filter is being edited")
	}
	return out, nil
}

// parseRange reads "lo..hi" where either side may be empty. A value without
// the separator sets both bounds.
func parseRange[T any](value string, parse func(string) (T, error)) (lo, hi *T, err error) {
	if value == "" {
		return nil, nil, nil
	}

	left, right, found := strings.Cut(value, rangeSeparator)
	if !found {
		right = left
	}
	bound := func(s string) (*T, error) {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		v, err := parse(s)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}

	if lo, err = bound(left); err != nil {
		return nil, nil, err
	}
	if hi, err = bound(right); err != nil {
		return nil, nil, err
	}
	return lo, hi, nil
}

func resolveCategories(value string, categories []model.Category) ([]int, error) {
	ids := []int{}
	if value == "" {
		return ids, nil
	}

	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.Atoi(part); err == nil {
			ids = append(ids, id)
			continue
		}
		found := false
		for _, c := range categories {
			if strings.EqualFold(c.CategoryName, part) {
				ids = append(ids, c.ID)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown category %q", part)
		}
	}
	return ids, nil
}

// inputValue renders the current value of the filter mode edits.
func inputValue(mode inputMode, filters query.FilterState, categories []model.Category) string {
	switch mode {
	case inputStore:
		return filters.Store
	case inputDate:
		return formatRange(filters.PurchaseDate.Start, filters.PurchaseDate.End, func(s string) string { return s })
	case inputAmount:
		return formatRange(filters.TransactionAmount.Min, filters.TransactionAmount.Max, func(v float64) string {
			return strconv.FormatFloat(v, 'f', -1, 64)
		})
	case inputCategory:
		names := make([]string, 0, len(filters.Category))
		for _, id := range filters.Category {
			names = append(names, categoryName(id, categories))
		}
		return strings.Join(names, ", ")
	default:
		return ""
	}
}

func formatRange[T any](lo, hi *T, format func(T) string) string {
	if lo == nil && hi == nil {
		return ""
	}
	var left, right string
	if lo != nil {
		left = format(*lo)
	}
	if hi != nil {
		right = format(*hi)
	}
	return left + rangeSeparator + right
}

func categoryName(id int, categories []model.Category) string {
	for _, c := range categories {
		if c.ID == id {
			return c.CategoryName
		}
	}
	return strconv.Itoa(id)
}

// nextStatus cycles the status filter: any, pre-authorized, authorized.
func nextStatus(status *bool) *bool {
	switch {
	case status == nil:
		v := true
		return &v
	case *status:
		v := false
		return &v
	default:
		return nil
	}
}
