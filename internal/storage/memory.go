package storage

import (
	"context"
	"sort"
	"sync"
)

// BackendMemory keeps feedback in process memory only.
const BackendMemory = "memory"

// MemoryStore is a FeedbackStore held in memory. Records are lost on exit.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]FeedbackRecord
	closed  bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]FeedbackRecord)}
}

func (m *MemoryStore) Init(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) AppendFeedback(ctx context.Context, rec FeedbackRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return &PersistenceError{Op: "append", Err: ErrStoreUnavailable}
	}
	if _, exists := m.records[rec.ID]; exists {
		return &PersistenceError{Op: "append", Err: errDuplicateID(rec.ID)}
	}
	m.records[rec.ID] = rec
	return nil
}

func (m *MemoryStore) PendingFeedback(ctx context.Context) ([]FeedbackRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, &PersistenceError{Op: "read", Err: ErrStoreUnavailable}
	}

	records := make([]FeedbackRecord, 0, len(m.records))
	for _, rec := range m.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].SubmittedAt.Equal(records[j].SubmittedAt) {
			return records[i].SubmittedAt.Before(records[j].SubmittedAt)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

func (m *MemoryStore) DeleteFeedback(ctx context.Context, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, &PersistenceError{Op: "delete", Err: ErrStoreUnavailable}
	}

	deleted := 0
	for _, id := range ids {
		if _, ok := m.records[id]; ok {
			delete(m.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryStore) CountFeedback(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, &PersistenceError{Op: "count", Err: ErrStoreUnavailable}
	}
	return len(m.records), nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

type errDuplicateID string

func (e errDuplicateID) Error() string {
	return "duplicate feedback id " + string(e)
}
