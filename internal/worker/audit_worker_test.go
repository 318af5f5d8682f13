package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bronlock/internal/database"
	"bronlock/internal/events"
	"bronlock/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWorker(t *testing.T) (*AuditWorker, *database.DB) {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "audit.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewAuditWorker(db, RetryPolicy{}, &logger), db
}

func waitForTrail(t *testing.T, db *database.DB, lockToken string, want int) []*models.AuditEntry {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		trail, err := db.GetAuditTrailByLockToken(context.Background(), lockToken)
		require.NoError(t, err)
		if len(trail) >= want {
			return trail
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("audit trail for %s never reached %d entries", lockToken, want)
	return nil
}

func TestAuditWorker_PersistsEntries(t *testing.T) {
	w, db := setupWorker(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	require.NoError(t, w.EnqueueEntry(ctx, &models.AuditEntry{
		ProviderID: "v1",
		LockToken:  "tok-1",
		EventType:  events.EventSlotReserved,
	}))

	trail := waitForTrail(t, db, "tok-1", 1)
	assert.Equal(t, events.EventSlotReserved, trail[0].EventType)
}

func TestAuditWorker_SubscribedToBus(t *testing.T) {
	w, db := setupWorker(t)
	bus := events.NewEventBus()
	w.Subscribe(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	payload := events.ReservationEventPayload{
		ProviderID: "v1",
		LockToken:  "tok-2",
		Detail:     "slot already leased",
		OccurredAt: time.Now(),
	}
	require.NoError(t, bus.PublishJSON(events.EventReserveConflict, payload))
	require.NoError(t, bus.PublishJSON(events.EventReservationExpired, payload))

	trail := waitForTrail(t, db, "tok-2", 2)
	assert.Equal(t, events.EventReserveConflict, trail[0].EventType)
	assert.Equal(t, events.EventReservationExpired, trail[1].EventType)
	assert.Equal(t, "slot already leased", trail[0].Detail)
}

func TestAuditWorker_StopDrainsQueue(t *testing.T) {
	w, db := setupWorker(t)

	// Enqueue before starting so entries sit in the queue, then rely on
	// Stop to flush them.
	for i := 0; i < 5; i++ {
		require.NoError(t, w.EnqueueEntry(context.Background(), &models.AuditEntry{
			ProviderID: "v1",
			LockToken:  "tok-3",
			EventType:  events.EventSlotReserved,
		}))
	}

	w.Start(context.Background())
	w.Stop()

	trail, err := db.GetAuditTrailByLockToken(context.Background(), "tok-3")
	require.NoError(t, err)
	assert.Len(t, trail, 5)
}

func TestAuditWorker_NoBackoffAfterFinalAttempt(t *testing.T) {
	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "audit.db"), &logger)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Every insert fails against the closed database. Two attempts mean
	// exactly one backoff in between; the giving-up path must not sleep
	// again before the entry is dropped.
	w := NewAuditWorker(db, RetryPolicy{
		MaxRetries:    2,
		InitialDelay:  150 * time.Millisecond,
		MaxDelay:      150 * time.Millisecond,
		BackoffFactor: 1,
	}, &logger)

	require.NoError(t, w.EnqueueEntry(context.Background(), &models.AuditEntry{
		ProviderID: "v1",
		LockToken:  "tok-4",
		EventType:  events.EventSlotReserved,
	}))

	start := time.Now()
	w.Start(context.Background())
	w.Stop()
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 300*time.Millisecond, "drain slept past the final attempt")
}

func TestRetryPolicy_NextDelay(t *testing.T) {
	p := RetryPolicy{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2,
	}

	assert.Equal(t, 100*time.Millisecond, p.NextDelay(1))
	assert.Equal(t, 200*time.Millisecond, p.NextDelay(2))
	assert.Equal(t, 400*time.Millisecond, p.NextDelay(3))
	assert.Equal(t, time.Second, p.NextDelay(10))
	assert.Equal(t, 100*time.Millisecond, p.NextDelay(0))
}
