package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"bronlock/internal/database"
	"bronlock/internal/events"
	"bronlock/internal/models"

	"github.com/rs/zerolog"
)

// AuditWorker drains lifecycle events into the booking_audit table
// off the request path. The trail is diagnostics only; a dropped
// entry never affects booking correctness, so the queue is bounded
// and overflow is logged rather than blocking a reservation.
type AuditWorker struct {
	db          *database.DB
	retryPolicy RetryPolicy
	queue       chan *models.AuditEntry
	logger      *zerolog.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

func NewAuditWorker(db *database.DB, retry RetryPolicy, logger *zerolog.Logger) *AuditWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 3
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 100 * time.Millisecond
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 5 * time.Second
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &AuditWorker{
		db:          db,
		retryPolicy: retry,
		queue:       make(chan *models.AuditEntry, models.AuditQueueSize),
		logger:      logger,
		stopped:     make(chan struct{}),
	}
}

// Start launches the consumer goroutine.
func (w *AuditWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				w.drain()
				return
			case <-w.stopped:
				w.drain()
				return
			case entry := <-w.queue:
				w.persist(context.Background(), entry)
			}
		}
	}()
}

// Stop flushes pending entries and stops the consumer.
func (w *AuditWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopped) })
	w.wg.Wait()
}

// EnqueueEntry queues an audit entry without blocking the caller.
func (w *AuditWorker) EnqueueEntry(ctx context.Context, entry *models.AuditEntry) error {
	select {
	case w.queue <- entry:
	default:
		w.logger.Warn().Str("event", entry.EventType).Msg("audit queue full, entry dropped")
	}
	return nil
}

// Subscribe wires the worker to every lifecycle event on the bus.
func (w *AuditWorker) Subscribe(bus *events.EventBus) {
	types := []string{
		events.EventSlotReserved,
		events.EventReserveConflict,
		events.EventAppointmentConfirmed,
		events.EventConfirmDuplicate,
		events.EventReservationExpired,
		events.EventReservationCancelled,
		events.EventAppointmentCancelled,
	}
	for _, eventType := range types {
		bus.Subscribe(eventType, w.handleEvent)
	}
}

func (w *AuditWorker) handleEvent(event *events.Event) error {
	var payload events.ReservationEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		w.logger.Error().Err(err).Str("event", event.Type).Msg("decode audit event payload")
		return err
	}

	return w.EnqueueEntry(context.Background(), &models.AuditEntry{
		AppointmentID: payload.AppointmentID,
		ProviderID:    payload.ProviderID,
		LockToken:     payload.LockToken,
		EventType:     event.Type,
		Detail:        payload.Detail,
	})
}

func (w *AuditWorker) persist(ctx context.Context, entry *models.AuditEntry) {
	var lastErr error
	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		if lastErr = w.db.CreateAuditEntry(ctx, entry); lastErr == nil {
			return
		}
		if attempt < w.retryPolicy.MaxRetries {
			time.Sleep(w.retryPolicy.NextDelay(attempt))
		}
	}
	w.logger.Error().Err(lastErr).Str("event", entry.EventType).Str("lock_token", entry.LockToken).Msg("audit entry dropped after retries")
}

func (w *AuditWorker) drain() {
	for {
		select {
		case entry := <-w.queue:
			w.persist(context.Background(), entry)
		default:
			return
		}
	}
}
