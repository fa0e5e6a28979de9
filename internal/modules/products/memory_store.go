package products

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps drafts in process, encoded the same way the repository
// stores them. It backs one-shot tools that have no database.
type MemoryStore struct {
	mu       sync.RWMutex
	payloads map[string][]byte
	rows     map[string]Summary
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		payloads: make(map[string][]byte),
		rows:     make(map[string]Summary),
	}
}

func (m *MemoryStore) Save(_ context.Context, d *Draft) error {
	payload, err := encodeDraft(d)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads[d.ID] = payload
	m.rows[d.ID] = Summary{
		ID:               d.ID,
		Name:             d.Name,
		Variant:          d.Variant,
		State:            d.Schedule.State,
		GenerationLocked: d.Schedule.GenerationLocked,
		Periods:          len(d.Schedule.Periods),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Draft, error) {
	m.mu.RLock()
	payload, ok := m.payloads[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return decodeDraft(payload)
}

// List matches the repository order: most recently updated first.
func (m *MemoryStore) List(_ context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Summary, 0, len(m.rows))
	for _, s := range m.rows {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payloads[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.payloads, id)
	delete(m.rows, id)
	return nil
}
