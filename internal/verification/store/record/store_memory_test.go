package record

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/internal/verification/models"
	"docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	id := domain.NewVerificationID()
	rec := models.VerificationRecord{VerificationID: id, OverallStatus: models.OverallApproved}

	require.NoError(t, s.Append(ctx, rec))

	err := s.Append(ctx, models.VerificationRecord{VerificationID: id, OverallStatus: models.OverallRejected})
	assert.ErrorIs(t, err, sentinel.ErrConflict)

	got, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.OverallApproved, got.OverallStatus, "append never overwrites")

	_, err = s.FindByID(ctx, domain.NewVerificationID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.Equal(t, 1, s.Len())
}
