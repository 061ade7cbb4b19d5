package store

import (
	"fmt"

	"github.com/Veraticus/expensy/internal/common"
	"github.com/Veraticus/expensy/internal/service"
)

// Report collects what the exporters write from the held state. Pending
// markers are left out; deleted rows are kept for the writer to decide.
func (s *State) Report() (*service.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil, fmt.Errorf("build report: %w", common.ErrNotLoggedIn)
	}

	report := &service.Report{
		GeneratedAt:  s.now(),
		User:         *s.user,
		History:      s.history.Value,
		Transactions: s.transactions.Loaded(),
	}
	if s.categories != nil {
		report.Categories = append(report.Categories, s.categories.Value...)
	}
	return report, nil
}
