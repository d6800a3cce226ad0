package cart

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Store.Load when nothing is stored under a key.
var ErrNotFound = errors.New("cart not found")

// Store persists the serialized cart of each session in a single slot.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

// Load returns a copy of the data stored under key.
func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.slots[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Save replaces the data stored under key.
func (s *MemoryStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots[key] = append([]byte(nil), data...)
	return nil
}
