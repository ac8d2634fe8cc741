package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/farebridge/agency-booking/internal/models"
)

// MemoryStore is an in-process Store with the same wholesale-write
// semantics as the Redis one. Used in tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Save(ctx context.Context, s *models.BookingSession) error {
	s.UpdatedAt = time.Now()
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[s.ID] = data
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, bookingID string) (*models.BookingSession, error) {
	m.mu.RLock()
	data, ok := m.data[bookingID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var s models.BookingSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryStore) Delete(ctx context.Context, bookingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, bookingID)
	return nil
}
