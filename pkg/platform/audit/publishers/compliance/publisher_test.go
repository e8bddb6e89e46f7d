package compliance

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "docverify/pkg/platform/audit"
	"docverify/pkg/platform/audit/store/memory"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error {
	return errors.New("outbox unavailable")
}

func TestPublisher_Emit(t *testing.T) {
	t.Run("persists event with derived category", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		pub := New(store)

		err := pub.Emit(context.Background(), audit.ComplianceEvent{
			AccountID:      "2b9f6b1e-8b7f-4a43-9d77-1f0f2c7f3c10",
			VerificationID: "VER-ABCD1234",
			Action:         audit.EventVerificationCompleted,
			Decision:       "approved",
		})
		require.NoError(t, err)

		events, err := store.ListByVerification(context.Background(), "VER-ABCD1234")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, audit.CategoryCompliance, events[0].Category)
		assert.False(t, events[0].Timestamp.IsZero())
		assert.NotEqual(t, "", events[0].ID.String())
	})

	t.Run("rejects events without account or verification", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		pub := New(store)
		err := pub.Emit(context.Background(), audit.ComplianceEvent{Action: audit.EventRetentionPurged})
		require.ErrorIs(t, err, errIncomplete)
		assert.Contains(t, err.Error(), "account_id")
		assert.Contains(t, err.Error(), "verification_id")

		events, err := store.ListAll(context.Background())
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("fails closed when store fails", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := NewMetrics(reg)
		pub := New(failingStore{}, WithMetrics(m))

		err := pub.Emit(context.Background(), audit.ComplianceEvent{
			AccountID:      "acct",
			VerificationID: "VER-ABCD1234",
			Action:         audit.EventVerificationCompleted,
		})
		require.Error(t, err)
		assert.Equal(t, float64(1), testutil.ToFloat64(m.PersistFailures))
		assert.Equal(t, float64(0), testutil.ToFloat64(m.EventsEmitted))
	})
}
