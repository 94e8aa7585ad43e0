package store

import (
	"context"
	"sync"

	"github.com/bimakw/dex-gateway/internal/domain/entities"
)

// MemoryStore implements TxStore in process memory (for testing and
// development). Records do not survive a restart.
type MemoryStore struct {
	mu      sync.Mutex
	records []entities.TxRecord
}

// NewMemoryStore creates a new in-memory transaction store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) ([]entities.TxRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entities.TxRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStore) Save(ctx context.Context, records []entities.TxRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make([]entities.TxRecord, len(records))
	copy(s.records, records)
	return nil
}
