package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventSlotReserved         = "slot_reserved"
	EventReserveConflict      = "reserve_conflict"
	EventAppointmentConfirmed = "appointment_confirmed"
	EventConfirmDuplicate     = "confirm_duplicate"
	EventReservationExpired   = "reservation_expired"
	EventReservationCancelled = "reservation_cancelled"
	EventAppointmentCancelled = "appointment_cancelled"
)

// ReservationEventPayload is the minimal reservation snapshot handed
// to event consumers (the audit worker today).
type ReservationEventPayload struct {
	AppointmentID string    `json:"appointment_id,omitempty"`
	ProviderID    string    `json:"provider_id"`
	ResourceIDs   []string  `json:"resource_ids,omitempty"`
	Date          string    `json:"date,omitempty"`
	StartTime     string    `json:"start_time,omitempty"`
	LockToken     string    `json:"lock_token"`
	Detail        string    `json:"detail,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
