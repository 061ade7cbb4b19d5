package query

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Badge marks one filter, range bound, or the sort as differing from the
// baseline. Resetting a badge resets exactly that Key and SubKey.
type Badge struct {
	Key    string
	SubKey string
	Value  string
}

// String renders the badge for display.
func (b Badge) String() string {
	name := b.Key
	if b.SubKey != "" {
		name += " " + b.SubKey
	}
	if b.Value == "" {
		return name
	}
	return name + ": " + b.Value
}

// ChangedFilters lists what differs between current and initial, the sort
// first, then filters in table column order.
func ChangedFilters(initial, current FilterState, sort SortConfig) []Badge {
	var badges []Badge

	if sort.IsSet() {
		badges = append(badges, Badge{Key: KeySort, Value: sort.Label()})
	}

	if !equalPtr(initial.PurchaseDate.Start, current.PurchaseDate.Start) {
		badges = append(badges, Badge{Key: KeyPurchaseDate, SubKey: SubKeyStart, Value: formatPtr(current.PurchaseDate.Start)})
	}
	if !equalPtr(initial.PurchaseDate.End, current.PurchaseDate.End) {
		badges = append(badges, Badge{Key: KeyPurchaseDate, SubKey: SubKeyEnd, Value: formatPtr(current.PurchaseDate.End)})
	}
	if !equalPtr(initial.TransactionAmount.Min, current.TransactionAmount.Min) {
		badges = append(badges, Badge{Key: KeyTransactionAmount, SubKey: SubKeyMin, Value: formatPtr(current.TransactionAmount.Min)})
	}
	if !equalPtr(initial.TransactionAmount.Max, current.TransactionAmount.Max) {
		badges = append(badges, Badge{Key: KeyTransactionAmount, SubKey: SubKeyMax, Value: formatPtr(current.TransactionAmount.Max)})
	}
	if !slices.Equal(initial.Category, current.Category) {
		ids := make([]string, len(current.Category))
		for i, id := range current.Category {
			ids[i] = strconv.Itoa(id)
		}
		badges = append(badges, Badge{Key: KeyCategory, Value: strings.Join(ids, ",")})
	}
	if initial.Store != current.Store {
		badges = append(badges, Badge{Key: KeyStore, Value: current.Store})
	}
	if !equalPtr(initial.Status, current.Status) {
		badges = append(badges, Badge{Key: KeyStatus, Value: StatusLabel(current.Status)})
	}

	return badges
}

// StatusLabel names a status filter value.
func StatusLabel(status *bool) string {
	switch {
	case status == nil:
		return "Any"
	case *status:
		return "Pre-Authorized"
	default:
		return "Authorized"
	}
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func formatPtr[T any](p *T) string {
	if p == nil {
		return ""
	}
	return fmt.Sprint(*p)
}
