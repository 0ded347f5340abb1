package gate

import (
	"context"
	"sync"
	"time"

	"github.com/desertthunder/setlist/internal/models"
)

// MemoryStore keeps entries in process memory. Entries are lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]models.RateLimitEntry
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]models.RateLimitEntry)}
}

func (m *MemoryStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var current *models.RateLimitEntry
	if e, ok := m.entries[key]; ok {
		current = &e
	}
	m.entries[key] = fn(current)
	return nil
}

func (m *MemoryStore) Prune(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for key, e := range m.entries {
		if e.WindowResetAt.Before(before) {
			delete(m.entries, key)
			n++
		}
	}
	return n, nil
}

// Get returns a copy of the entry for key.
func (m *MemoryStore) Get(key string) (models.RateLimitEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	return e, ok
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
