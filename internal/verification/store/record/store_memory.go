// Package record persists verification records append-only.
package record

import (
	"context"
	"fmt"
	"sync"

	"docverify/internal/verification/models"
	"docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.VerificationID]models.VerificationRecord
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.VerificationID]models.VerificationRecord)}
}

func (s *InMemoryStore) Append(_ context.Context, record models.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.VerificationID]; exists {
		return fmt.Errorf("record %s: %w", record.VerificationID, sentinel.ErrConflict)
	}
	s.records[record.VerificationID] = record
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.VerificationID) (*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", id, sentinel.ErrNotFound)
	}
	return &record, nil
}

// Len returns the number of stored records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
