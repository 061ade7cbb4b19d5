package tui

import "github.com/Veraticus/expensy/internal/store"

// pageLoadedMsg carries the result of a page fetch. seq identifies the
// request; results of superseded requests are dropped.
type pageLoadedMsg struct {
	err  error
	page store.Page
	seq  int
}

// inputMode selects what the text input is editing.
type inputMode int

const (
	inputNone inputMode = iota
	inputStore
	inputDate
	inputAmount
	inputCategory
)

func (m inputMode) prompt() string {
	switch m {
	case inputStore:
		return "Store: "
	case inputDate:
		return "Dates (YYYY-MM-DD..YYYY-MM-DD): "
	case inputAmount:
		return "Amount (min..max): "
	case inputCategory:
		return "Categories (names or ids, comma separated): "
	default:
		return ""
	}
}
