package query

import (
	"encoding/json"
	"fmt"
)

// Direction orders a sorted column.
type Direction string

// Sort directions.
const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Ascending || d == Descending
}

// SortConfig is the active sort. The zero value means unsorted.
type SortConfig struct {
	Field     *string    `json:"field"`
	Direction *Direction `json:"direction"`
}

// SortBy returns a config sorting field in direction.
func SortBy(field string, direction Direction) SortConfig {
	return SortConfig{Field: &field, Direction: &direction}
}

// IsSet reports whether a field is sorted.
func (s SortConfig) IsSet() bool {
	return s.Field != nil
}

// Label renders the sort as "field - direction".
func (s SortConfig) Label() string {
	if s.Field == nil {
		return ""
	}
	direction := Ascending
	if s.Direction != nil {
		direction = *s.Direction
	}
	return fmt.Sprintf("%s - %s", *s.Field, direction)
}

// Cycle advances the sort of field: unsorted, ascending, descending, then
// unsorted again. Selecting another field starts it ascending.
func (s SortConfig) Cycle(field string) SortConfig {
	if s.Field == nil || *s.Field != field {
		return SortBy(field, Ascending)
	}
	if s.Direction == nil || *s.Direction == Ascending {
		return SortBy(field, Descending)
	}
	return SortConfig{}
}

// decodeSort reads a sort over the unsorted default. An unknown direction on
// a sorted field falls back to ascending.
func decodeSort(raw string) (SortConfig, error) {
	if raw == "" {
		return SortConfig{}, nil
	}

	var wire struct {
		Field     *string `json:"field"`
		Direction *string `json:"direction"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return SortConfig{}, fmt.Errorf("sort is not a JSON object: %w", err)
	}
	if wire.Field == nil || *wire.Field == "" {
		return SortConfig{}, nil
	}

	direction := Ascending
	if wire.Direction != nil && Direction(*wire.Direction).Valid() {
		direction = Direction(*wire.Direction)
	}
	return SortBy(*wire.Field, direction), nil
}
