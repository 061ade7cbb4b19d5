package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/Veraticus/expensy/internal/common"
	"github.com/Veraticus/expensy/internal/model"
	"github.com/Veraticus/expensy/internal/service"
)

// StoreName is the key the session snapshot is saved under.
const StoreName = "expensy-store"

const snapshotVersion = 1

// ErrSnapshotVersion is returned when restoring a snapshot written by an
// incompatible version.
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

type snapshot struct {
	User             *model.User                          `json:"user"`
	Transactions     *TransactionsCache                   `json:"transactions"`
	Categories       *Entry[[]model.Category]             `json:"categories"`
	Recurring        *Entry[[]model.RecurringTransaction] `json:"recurringTransactions"`
	SpendingHistory  *Entry[model.SpendingHistory]        `json:"spendingHistory"`
	ViewQuery        string                               `json:"viewQuery"`
	InitialSetupData model.SetupData                      `json:"initialSetupData"`
	Version          int                                  `json:"version"`
}

// Snapshot serializes every slot.
func (s *State) Snapshot() ([]byte, error) {
	s.mu.RLock()
	snap := snapshot{
		Version:          snapshotVersion,
		User:             s.user,
		Transactions:     s.transactions,
		Categories:       s.categories,
		Recurring:        s.recurring,
		SpendingHistory:  s.history,
		InitialSetupData: s.setup,
		ViewQuery:        s.viewQuery,
	}
	data, err := json.Marshal(snap)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Restore replaces every slot with the contents of a snapshot. On error the
// state is left unchanged.
func (s *State) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("%w: %d", ErrSnapshotVersion, snap.Version)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.user = snap.User
	s.transactions = snap.Transactions
	s.categories = snap.Categories
	s.recurring = snap.Recurring
	if snap.SpendingHistory != nil {
		s.history = snap.SpendingHistory
	}
	if snap.InitialSetupData.StepIndex > 0 {
		s.setup = snap.InitialSetupData
	}
	s.viewQuery = snap.ViewQuery
	return nil
}

// Save writes the snapshot to the session store.
func (s *State) Save(ctx context.Context, sessions service.SessionStore) error {
	data, err := s.Snapshot()
	if err != nil {
		return err
	}
	if err := sessions.SaveSnapshot(ctx, StoreName, data); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load restores the snapshot held by the session store. A missing snapshot
// leaves a fresh state; an unreadable one is discarded with a warning.
func (s *State) Load(ctx context.Context, sessions service.SessionStore) error {
	data, err := sessions.LoadSnapshot(ctx, StoreName)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if err := s.Restore(data); err != nil {
		slog.Warn("Discarding unreadable session", "error", err)
		return nil
	}
	return nil
}

// Clear resets the state and deletes its snapshot.
func (s *State) Clear(ctx context.Context, sessions service.SessionStore) error {
	s.Reset()
	if err := sessions.DeleteSnapshot(ctx, StoreName); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SessionNavigator keeps the transaction browser's query string in the state
// so it survives restarts.
type SessionNavigator struct {
	state *State
}

// Navigator returns a navigator backed by s.
func (s *State) Navigator() *SessionNavigator {
	return &SessionNavigator{state: s}
}

// Query returns the current query parameters.
func (n *SessionNavigator) Query() url.Values {
	values, err := url.ParseQuery(n.state.ViewQuery())
	if err != nil {
		slog.Debug("Ignoring malformed view query", "error", err)
	}
	return values
}

// Navigate replaces the query parameters.
func (n *SessionNavigator) Navigate(values url.Values) {
	n.state.SetViewQuery(values.Encode())
}
