package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tungdibui2609/saritaqr/internal/models"
)

// MemoryMutationStore keeps the queue in process memory. Tests and the
// queue-dump tooling run on it; the agent itself uses the database store.
type MemoryMutationStore struct {
	mu   sync.Mutex
	seq  int64
	rows []models.PendingMutation
}

func NewMemoryMutationStore() *MemoryMutationStore {
	return &MemoryMutationStore{}
}

func (s *MemoryMutationStore) Append(m *models.PendingMutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Seq = s.seq
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.rows = append(s.rows, *m)
	return nil
}

func (s *MemoryMutationStore) RemoveMany(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	now := time.Now().UTC()
	for i := range s.rows {
		if _, ok := wanted[s.rows[i].ID]; ok && s.rows[i].SyncedAt == nil {
			t := now
			s.rows[i].SyncedAt = &t
		}
	}
	return nil
}

func (s *MemoryMutationStore) ListAll() ([]models.PendingMutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []models.PendingMutation
	for _, row := range s.rows {
		if row.SyncedAt == nil {
			pending = append(pending, row)
		}
	}
	return pending, nil
}

func (s *MemoryMutationStore) Prune(olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	kept := s.rows[:0]
	var dropped int64
	for _, row := range s.rows {
		if row.SyncedAt != nil && row.SyncedAt.Before(cutoff) {
			dropped++
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept
	return dropped, nil
}

// MemoryKV is the in-memory snapshot cache counterpart.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (s *MemoryKV) Get(key string, dest interface{}) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if dest == nil {
		return true, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decoding cache %q: %w", key, err)
	}
	return true, nil
}

func (s *MemoryKV) Put(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cache %q: %w", key, err)
	}
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryKV) Delete(key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}
