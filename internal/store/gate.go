package store

import (
	"time"
)

// RefetchThreshold is how long cached data is considered fresh enough to skip
// a fetch when the caller allows the cache.
const RefetchThreshold = 5 * time.Second

// ShouldFetch decides whether a slot must be refetched. A fetch is skipped
// only when the caller allows the cache, the slot holds data, and that data
// is at most threshold old.
func ShouldFetch(present bool, fetchedAt time.Time, useCache bool, threshold time.Duration, now time.Time) bool {
	if !useCache || !present {
		return true
	}
	return now.Sub(fetchedAt) > threshold
}
