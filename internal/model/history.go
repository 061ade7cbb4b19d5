package model

import (
	"fmt"
	"sort"
	"time"
)

// SpendingHistory maps a year-month key such as "202311" to the amount spent
// in that month.
type SpendingHistory map[string]float64

// MonthKey returns the history key of the month containing t.
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d%02d", t.Year(), int(t.Month()))
}

// MonthSpending is one point of the spending series.
type MonthSpending struct {
	Month  time.Time
	Amount float64
}

// Series returns the months in chronological order. Keys that are not
// year-month values, such as the "0" placeholder of an empty history, are
// skipped.
func (h SpendingHistory) Series() []MonthSpending {
	out := make([]MonthSpending, 0, len(h))
	for key, amount := range h {
		month, err := time.Parse("200601", key)
		if err != nil {
			continue
		}
		out = append(out, MonthSpending{Month: month, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month.Before(out[j].Month)
	})
	return out
}
