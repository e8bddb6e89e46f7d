// Package account holds the per-account verification status projection.
package account

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"docverify/internal/verification/models"
	"docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	statuses map[domain.AccountID]models.AccountVerificationStatus
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{statuses: make(map[domain.AccountID]models.AccountVerificationStatus)}
}

// Replace stores status as the account's only projection.
func (s *InMemoryStore) Replace(_ context.Context, status models.AccountVerificationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[status.AccountID] = status
	return nil
}

func (s *InMemoryStore) FindByAccount(_ context.Context, accountID domain.AccountID) (*models.AccountVerificationStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, sentinel.ErrNotFound)
	}
	return &status, nil
}

// List returns every projection ordered by account id.
func (s *InMemoryStore) List(_ context.Context) ([]models.AccountVerificationStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AccountVerificationStatus, 0, len(s.statuses))
	for _, st := range s.statuses {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID.String() < out[j].AccountID.String() })
	return out, nil
}
