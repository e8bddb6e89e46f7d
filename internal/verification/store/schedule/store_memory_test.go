package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/internal/verification/models"
	"docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

func TestInMemoryStore_ListDue(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	early := domain.NewVerificationID()
	late := domain.NewVerificationID()
	future := domain.NewVerificationID()
	require.NoError(t, s.Schedule(ctx, models.DeletionSchedule{VerificationID: late, DeleteAfter: now.Add(-time.Hour)}))
	require.NoError(t, s.Schedule(ctx, models.DeletionSchedule{VerificationID: early, DeleteAfter: now.Add(-2 * time.Hour)}))
	require.NoError(t, s.Schedule(ctx, models.DeletionSchedule{VerificationID: future, DeleteAfter: now.Add(time.Hour)}))

	err := s.Schedule(ctx, models.DeletionSchedule{VerificationID: early})
	assert.ErrorIs(t, err, sentinel.ErrConflict)

	due, err := s.ListDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, early, due[0].VerificationID)
	assert.Equal(t, late, due[1].VerificationID)

	require.NoError(t, s.MarkPurged(ctx, early, now))
	due, err = s.ListDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, late, due[0].VerificationID)

	assert.ErrorIs(t, s.MarkPurged(ctx, domain.NewVerificationID(), now), sentinel.ErrNotFound)
}
