package domain

import (
	"context"
	"time"

	"bronlock/internal/models"
)

// LeaseStore is the minimal contract the lock manager needs from the
// backing KV store: atomic set-if-absent-with-expiry and conditional
// delete. Expiry is passive; the store removes entries itself.
type LeaseStore interface {
	// SetIfAbsent atomically claims key for token with the given TTL.
	// Returns false when the key is already claimed.
	SetIfAbsent(ctx context.Context, key, token string, ttl time.Duration) (bool, error)

	// DeleteIfOwned removes key only when its stored token matches.
	// Returns false (and no error) on token mismatch or missing key.
	DeleteIfOwned(ctx context.Context, key, token string) (bool, error)

	// GetToken returns the current token for key, or "" when unleased.
	GetToken(ctx context.Context, key string) (string, error)
}

// LockManager owns the lease lifecycle: all-or-nothing acquisition
// over one or more slot keys and ownership-checked release.
type LockManager interface {
	Acquire(ctx context.Context, keys []string, ownerRef string, ttl time.Duration) (*models.LeaseSet, error)
	Release(ctx context.Context, key, token string) (bool, error)
	ReleaseAll(ctx context.Context, keys []string, token string)
	Held(ctx context.Context, key, token string) (bool, error)
}

// AppointmentRepository is the durable source of truth for slot
// occupancy. Only the booking service writes through it.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appt *models.Appointment) error
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	FindActiveAppointment(ctx context.Context, providerID string, resourceIDs []string, date, startTime string) (*models.Appointment, error)
	CancelAppointment(ctx context.Context, id string, version int64) error
	GetAppointmentsByProviderDate(ctx context.Context, providerID, date string) ([]*models.Appointment, error)
	GetAppointmentsByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Appointment, error)
}

// PaymentVerifier is the opaque payment collaborator. Verification
// must succeed before any appointment is created.
type PaymentVerifier interface {
	Verify(ctx context.Context, evidence models.PaymentEvidence) (*models.PaymentVerification, error)
}

// Catalog is the read-only provider lookup used for request
// validation and appointment population.
type Catalog interface {
	GetProvider(ctx context.Context, id string) (*models.Provider, error)
}

// EventPublisher publishes lifecycle events for audit consumers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// AuditWorker persists the diagnostics trail asynchronously.
type AuditWorker interface {
	EnqueueEntry(ctx context.Context, entry *models.AuditEntry) error
}

// BookingService is the reserve -> pay -> confirm orchestrator.
type BookingService interface {
	Reserve(ctx context.Context, req *models.ReservationRequest) (*models.Reservation, error)
	Confirm(ctx context.Context, req *models.ConfirmRequest) (*models.Appointment, error)
	Cancel(ctx context.Context, req *models.ReservationRequest, lockToken string) error
	CancelAppointment(ctx context.Context, id string, version int64) error
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	GetAvailability(ctx context.Context, providerID, date string) ([]*models.Appointment, error)
	GetAppointmentsByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Appointment, error)
}
