package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	t.Run("PublishReachesSubscribers", func(t *testing.T) {
		bus := NewEventBus()

		var got []*Event
		bus.Subscribe(EventSlotReserved, func(e *Event) error {
			got = append(got, e)
			return nil
		})
		bus.Subscribe(EventSlotReserved, func(e *Event) error {
			got = append(got, e)
			return nil
		})

		bus.Publish(&Event{Type: EventSlotReserved, Payload: []byte(`{}`)})
		assert.Len(t, got, 2)
	})

	t.Run("NoSubscribersIsNoOp", func(t *testing.T) {
		bus := NewEventBus()
		bus.Publish(&Event{Type: EventReserveConflict})
	})

	t.Run("TypeIsolation", func(t *testing.T) {
		bus := NewEventBus()

		var reserved, expired int
		bus.Subscribe(EventSlotReserved, func(e *Event) error { reserved++; return nil })
		bus.Subscribe(EventReservationExpired, func(e *Event) error { expired++; return nil })

		bus.Publish(&Event{Type: EventSlotReserved})
		bus.Publish(&Event{Type: EventSlotReserved})
		bus.Publish(&Event{Type: EventReservationExpired})

		assert.Equal(t, 2, reserved)
		assert.Equal(t, 1, expired)
	})

	t.Run("PublishJSON", func(t *testing.T) {
		bus := NewEventBus()

		var received *Event
		bus.Subscribe(EventAppointmentConfirmed, func(e *Event) error {
			received = e
			return nil
		})

		payload := ReservationEventPayload{
			AppointmentID: "appt-1",
			ProviderID:    "v1",
			LockToken:     "tok-1",
			OccurredAt:    time.Now(),
		}
		require.NoError(t, bus.PublishJSON(EventAppointmentConfirmed, payload))

		require.NotNil(t, received)
		assert.False(t, received.CreatedAt.IsZero())

		var decoded ReservationEventPayload
		require.NoError(t, json.Unmarshal(received.Payload, &decoded))
		assert.Equal(t, "appt-1", decoded.AppointmentID)
		assert.Equal(t, "tok-1", decoded.LockToken)
	})

	t.Run("NilBusPublishJSON", func(t *testing.T) {
		var bus *EventBus
		assert.NoError(t, bus.PublishJSON(EventSlotReserved, ReservationEventPayload{}))
	})
}
