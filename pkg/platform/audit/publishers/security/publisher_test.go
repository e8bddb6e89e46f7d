package security

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "docverify/pkg/platform/audit"
	"docverify/pkg/platform/audit/store/memory"
)

func TestPublisher_DrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithFlushInterval(time.Hour))

	for range 5 {
		pub.Emit(context.Background(), audit.SecurityEvent{
			VerificationID: "VER-ABCD1234",
			Subject:        "id_back",
			Action:         audit.EventIntegrityMismatch,
		})
	}
	require.NoError(t, pub.Close())

	events, err := store.ListByAction(context.Background(), audit.EventIntegrityMismatch)
	require.NoError(t, err)
	require.Len(t, events, 5)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
	assert.Equal(t, audit.SeverityWarning, events[0].Severity)
}

func TestPublisher_FullBufferDropsOldest(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithFlushInterval(time.Hour), WithBufferCapacity(2))

	for _, slot := range []string{"id_front", "id_back", "selfie_with_id"} {
		pub.Emit(context.Background(), audit.SecurityEvent{
			VerificationID: "VER-ABCD1234",
			Subject:        slot,
			Action:         audit.EventIntegrityMismatch,
		})
	}
	assert.Equal(t, int64(1), pub.Dropped())
	require.NoError(t, pub.Close())

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "id_back", events[0].Subject)
}

func TestPending_EvictsOldestWhenFull(t *testing.T) {
	q := newPending(2)
	q.push(audit.SecurityEvent{Subject: "a"})
	q.push(audit.SecurityEvent{Subject: "b"}, audit.SecurityEvent{Subject: "c"})

	assert.Equal(t, 2, q.len())
	assert.Equal(t, int64(1), q.evicted.Load())

	batch := q.take(10)
	require.Len(t, batch, 2)
	assert.Equal(t, "b", batch[0].Subject)
	assert.Equal(t, "c", batch[1].Subject)
	assert.Zero(t, q.len())
	assert.Nil(t, q.take(1))
}
