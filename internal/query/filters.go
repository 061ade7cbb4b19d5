// Package query models the filter and sort state of the transaction table
// and keeps it synchronized with a shareable query string.
package query

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Filter keys as they appear in the query string and in badges.
const (
	KeyPurchaseDate      = "purchaseDate"
	KeyTransactionAmount = "transactionAmount"
	KeyCategory          = "category"
	KeyStore             = "store"
	KeyStatus            = "status"
	KeySort              = "Sort"

	SubKeyStart = "start"
	SubKeyEnd   = "end"
	SubKeyMin   = "min"
	SubKeyMax   = "max"
)

// DateRange bounds purchase dates as YYYY-MM-DD strings. Nil is unbounded.
type DateRange struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
}

// AmountRange bounds transaction amounts. Nil is unbounded.
type AmountRange struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// FilterState is the full set of table filters. Status selects
// pre-authorized (true) or authorized (false) rows.
type FilterState struct {
	PurchaseDate      DateRange   `json:"purchaseDate"`
	TransactionAmount AmountRange `json:"transactionAmount"`
	Status            *bool       `json:"status"`
	Store             string      `json:"store"`
	Category          []int       `json:"category"`
}

// InitialFilters returns the baseline: nothing filtered.
func InitialFilters() FilterState {
	return FilterState{Category: []int{}}
}

// Clone returns a deep copy.
func (f FilterState) Clone() FilterState {
	out := FilterState{Store: f.Store, Category: slices.Clone(f.Category)}
	if out.Category == nil {
		out.Category = []int{}
	}
	out.PurchaseDate.Start = clonePtr(f.PurchaseDate.Start)
	out.PurchaseDate.End = clonePtr(f.PurchaseDate.End)
	out.TransactionAmount.Min = clonePtr(f.TransactionAmount.Min)
	out.TransactionAmount.Max = clonePtr(f.TransactionAmount.Max)
	out.Status = clonePtr(f.Status)
	return out
}

// IsInitial reports whether no filter is applied.
func (f FilterState) IsInitial() bool {
	return len(ChangedFilters(InitialFilters(), f, SortConfig{})) == 0
}

// ResetFilter restores one filter, or one bound of a range filter when
// subKey is set, to its initial value. KeySort is handled by the caller.
func (f *FilterState) ResetFilter(key, subKey string) error {
	initial := InitialFilters()
	switch key {
	case KeyPurchaseDate:
		switch subKey {
		case SubKeyStart:
			f.PurchaseDate.Start = initial.PurchaseDate.Start
		case SubKeyEnd:
			f.PurchaseDate.End = initial.PurchaseDate.End
		case "":
			f.PurchaseDate = initial.PurchaseDate
		default:
			return fmt.Errorf("unknown %s bound %q", key, subKey)
		}
	case KeyTransactionAmount:
		switch subKey {
		case SubKeyMin:
			f.TransactionAmount.Min = initial.TransactionAmount.Min
		case SubKeyMax:
			f.TransactionAmount.Max = initial.TransactionAmount.Max
		case "":
			f.TransactionAmount = initial.TransactionAmount
		default:
			return fmt.Errorf("unknown %s bound %q", key, subKey)
		}
	case KeyCategory:
		f.Category = initial.Category
	case KeyStore:
		f.Store = initial.Store
	case KeyStatus:
		f.Status = initial.Status
	default:
		return fmt.Errorf("unknown filter %q", key)
	}
	return nil
}

// decodeFilters lays the keys present in raw over the initial filters. Keys
// that are missing or fail to decode keep their initial value, and range
// filters merge per bound.
func decodeFilters(raw string) (FilterState, []error) {
	filters := InitialFilters()
	if raw == "" {
		return filters, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return filters, []error{fmt.Errorf("filter is not a JSON object: %w", err)}
	}

	targets := map[string]any{
		KeyPurchaseDate:      &filters.PurchaseDate,
		KeyTransactionAmount: &filters.TransactionAmount,
		KeyCategory:          &filters.Category,
		KeyStore:             &filters.Store,
		KeyStatus:            &filters.Status,
	}

	var errs []error
	for key, value := range fields {
		target, ok := targets[key]
		if !ok {
			continue
		}
		if err := decodeField(value, target); err != nil {
			errs = append(errs, fmt.Errorf("filter %s: %w", key, err))
		}
	}
	if filters.Category == nil {
		filters.Category = []int{}
	}
	return filters, errs
}

// decodeField decodes into a copy first so a partial failure cannot leave
// half-written values behind.
func decodeField(raw json.RawMessage, target any) error {
	switch t := target.(type) {
	case *DateRange:
		next := *t
		if err := json.Unmarshal(raw, &next); err != nil {
			return err
		}
		*t = next
	case *AmountRange:
		next := *t
		if err := json.Unmarshal(raw, &next); err != nil {
			return err
		}
		*t = next
	case *[]int:
		var next []int
		if err := json.Unmarshal(raw, &next); err != nil {
			return err
		}
		*t = next
	case *string:
		var next string
		if err := json.Unmarshal(raw, &next); err != nil {
			return err
		}
		*t = next
	case **bool:
		var next *bool
		if err := json.Unmarshal(raw, &next); err != nil {
			return err
		}
		*t = next
	default:
		return fmt.Errorf("unsupported target %T", target)
	}
	return nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
