package storage

import (
	"sync"

	"github.com/xaenox/assistant-relay/internal/models"
)

// MemoryStore keeps the usage counter and QA log in process memory. Used for
// tests and when the bot runs with use_in_memory storage.
type MemoryStore struct {
	mu      sync.RWMutex
	counter models.UsageCounter
	records []models.QARecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) GetCounter() (models.UsageCounter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.counter, nil
}

func (s *MemoryStore) SetCounter(counter models.UsageCounter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter = counter
	return nil
}

func (s *MemoryStore) AppendQA(record models.QARecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
	return nil
}

func (s *MemoryStore) ListQA() ([]models.QARecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.QARecord, len(s.records))
	copy(records, s.records)
	return records, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
