package store

import (
	"context"
	"sync"

	"github.com/Veraticus/expensy/internal/model"
	"github.com/Veraticus/expensy/internal/service"
	"github.com/Veraticus/expensy/internal/testutil"
)

// fakeBackend serves a fixed listing laid out the way the server does.
type fakeBackend struct {
	release    chan struct{}
	err        error
	history    model.SpendingHistory
	rows       []*model.Transaction
	categories []model.Category
	recurring  []model.RecurringTransaction
	queries    []service.TransactionQuery
	calls      map[string]int
	edits      []model.TransactionUpdate
	mu         sync.Mutex
	chunkSize  int
}

func newFakeBackend(rows []*model.Transaction, chunkSize int) *fakeBackend {
	return &fakeBackend{
		rows:      rows,
		chunkSize: chunkSize,
		calls:     make(map[string]int),
		history:   model.SpendingHistory{"202401": 120},
	}
}

func (f *fakeBackend) record(name string) error {
	f.mu.Lock()
	f.calls[name]++
	release, err := f.release, f.err
	f.mu.Unlock()
	if release != nil {
		<-release
	}
	return err
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeBackend) ListTransactions(_ context.Context, q service.TransactionQuery) (*model.TransactionsPayload, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if err := f.record("transactions"); err != nil {
		return nil, err
	}
	return &model.TransactionsPayload{
		ChunkSize:              f.chunkSize,
		TotalTransactionsCount: len(f.rows),
		Transactions:           testutil.Chunk(f.rows, f.chunkSize, q.Index, q.Length),
	}, nil
}

func (f *fakeBackend) GetUserCategories(context.Context) ([]model.Category, error) {
	if err := f.record("categories"); err != nil {
		return nil, err
	}
	return f.categories, nil
}

func (f *fakeBackend) ListRecurringTransactions(context.Context) ([]model.RecurringTransaction, error) {
	if err := f.record("recurring"); err != nil {
		return nil, err
	}
	return f.recurring, nil
}

func (f *fakeBackend) GetMonthlySpendingHistory(context.Context) (model.SpendingHistory, error) {
	if err := f.record("history"); err != nil {
		return nil, err
	}
	return f.history, nil
}

func (f *fakeBackend) UpdateTransaction(_ context.Context, update model.TransactionUpdate) error {
	if err := f.record("update"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, update)
	for i, row := range f.rows {
		if row.ID == update.TransactionID {
			edited := *row
			edited.MerchantData = update.MerchantData
			f.rows[i] = &edited
		}
	}
	return nil
}

func (f *fakeBackend) DeleteTransaction(_ context.Context, id string) error {
	if err := f.record("delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.ID != id {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	return nil
}

func (f *fakeBackend) CreateRecurringTransaction(_ context.Context, in model.RecurringInput) error {
	if err := f.record("create-recurring"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recurring = append(f.recurring, model.RecurringTransaction{
		ID:              len(f.recurring) + 1,
		TransactionName: in.Name,
		FrequencyUnit:   in.FrequencyUnit,
		FrequencyValue:  in.FrequencyValue,
	})
	return nil
}

func (f *fakeBackend) UpdateRecurringTransaction(context.Context, model.RecurringInput) error {
	return f.record("update-recurring")
}

func (f *fakeBackend) DeleteRecurringTransaction(context.Context, int) error {
	return f.record("delete-recurring")
}

// memorySessions is an in-memory service.SessionStore.
type memorySessions struct {
	data map[string][]byte
}

func (m *memorySessions) SaveSnapshot(_ context.Context, name string, data []byte) error {
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[name] = data
	return nil
}

func (m *memorySessions) LoadSnapshot(_ context.Context, name string) ([]byte, error) {
	data, ok := m.data[name]
	if !ok {
		return nil, errNotFound
	}
	return data, nil
}

func (m *memorySessions) DeleteSnapshot(_ context.Context, name string) error {
	delete(m.data, name)
	return nil
}

func (m *memorySessions) Close() error { return nil }
