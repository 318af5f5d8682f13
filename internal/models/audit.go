package models

import "time"

// AuditEntry is one row of the idempotency/diagnostics trail. The
// lock token is recorded purely to trace which reservation produced
// an appointment; it has no behavioral meaning post-confirmation.
type AuditEntry struct {
	ID            int64     `json:"id"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	ProviderID    string    `json:"provider_id"`
	LockToken     string    `json:"lock_token"`
	EventType     string    `json:"event_type"`
	Detail        string    `json:"detail,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
