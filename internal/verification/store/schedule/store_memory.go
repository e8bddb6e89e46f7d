// Package schedule persists deletion schedules for raw uploads.
package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"docverify/internal/verification/models"
	"docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.Mutex
	schedules map[domain.VerificationID]models.DeletionSchedule
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{schedules: make(map[domain.VerificationID]models.DeletionSchedule)}
}

func (s *InMemoryStore) Schedule(_ context.Context, schedule models.DeletionSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.schedules[schedule.VerificationID]; exists {
		return fmt.Errorf("schedule %s: %w", schedule.VerificationID, sentinel.ErrConflict)
	}
	schedule.Paths = append([]string(nil), schedule.Paths...)
	s.schedules[schedule.VerificationID] = schedule
	return nil
}

// ListDue returns unpurged schedules whose deadline has passed, oldest first.
func (s *InMemoryStore) ListDue(_ context.Context, now time.Time, limit int) ([]models.DeletionSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []models.DeletionSchedule
	for _, sch := range s.schedules {
		if sch.Due(now) {
			due = append(due, sch)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].DeleteAfter.Before(due[j].DeleteAfter) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *InMemoryStore) MarkPurged(_ context.Context, id domain.VerificationID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sch, ok := s.schedules[id]
	if !ok {
		return fmt.Errorf("schedule %s: %w", id, sentinel.ErrNotFound)
	}
	sch.PurgedAt = &at
	s.schedules[id] = sch
	return nil
}

// Get returns the schedule for id.
func (s *InMemoryStore) Get(id domain.VerificationID) (models.DeletionSchedule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sch, ok := s.schedules[id]
	return sch, ok
}
