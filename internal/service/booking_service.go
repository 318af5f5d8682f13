package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bronlock/internal/config"
	"bronlock/internal/database"
	"bronlock/internal/domain"
	"bronlock/internal/events"
	"bronlock/internal/metrics"
	"bronlock/internal/models"
	"bronlock/internal/slotkey"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingService drives the reserve -> pay -> confirm state machine.
// It is a stateless request handler: every piece of coordination
// state lives in the lease store or the appointment store, which is
// what allows running any number of replicas without in-process locks.
type BookingService struct {
	locks    domain.LockManager
	repo     domain.AppointmentRepository
	payments domain.PaymentVerifier
	catalog  domain.Catalog
	eventBus domain.EventPublisher
	cfg      config.BookingConfig
	logger   *zerolog.Logger
}

func NewBookingService(
	locks domain.LockManager,
	repo domain.AppointmentRepository,
	payments domain.PaymentVerifier,
	cat domain.Catalog,
	eventBus domain.EventPublisher,
	cfg config.BookingConfig,
	logger *zerolog.Logger,
) *BookingService {
	if cfg.DefaultTTLMillis <= 0 {
		cfg.DefaultTTLMillis = models.DefaultLeaseTTLMillis
	}
	if cfg.MinTTLMillis <= 0 {
		cfg.MinTTLMillis = models.MinLeaseTTLMillis
	}
	if cfg.MaxTTLMillis <= 0 {
		cfg.MaxTTLMillis = models.MaxLeaseTTLMillis
	}
	return &BookingService{
		locks:    locks,
		repo:     repo,
		payments: payments,
		catalog:  cat,
		eventBus: eventBus,
		cfg:      cfg,
		logger:   logger,
	}
}

// Reserve attempts to hold every slot the request names. On conflict
// the caller gets ErrSlotConflict and must pick a different slot;
// there is no retry loop here. A successful reserve hands back the
// lock token the client needs for confirm or cancel.
func (s *BookingService) Reserve(ctx context.Context, req *models.ReservationRequest) (*models.Reservation, error) {
	provider, err := s.validateRequest(ctx, req.ProviderID, req.ResourceIDs, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	keys := slotkey.DeriveFromRequest(req)
	resources := effectiveResources(req.ResourceIDs, req.StartTime)

	// The appointment store is the ground truth for occupancy; a slot
	// with an active appointment is taken even when no lease exists.
	existing, err := s.repo.FindActiveAppointment(ctx, req.ProviderID, resources, req.Date, req.StartTime)
	if err != nil {
		metrics.IncReserve("store_error")
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if existing != nil {
		metrics.IncReserve("conflict")
		return nil, domain.ErrSlotConflict
	}

	ttl := s.clampTTL(req.TTLMillis)
	leaseSet, err := s.locks.Acquire(ctx, keys, req.OwnerRef, ttl)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSlotConflict):
			metrics.IncReserve("conflict")
			s.publishEvent(events.EventReserveConflict, req.ProviderID, resources, req.Date, req.StartTime, "", "", "slot already leased")
		case errors.Is(err, domain.ErrStoreUnavailable):
			metrics.IncReserve("store_error")
			metrics.IncLeaseStoreError()
		}
		return nil, err
	}

	metrics.IncReserve("ok")
	s.publishEvent(events.EventSlotReserved, req.ProviderID, resources, req.Date, req.StartTime, leaseSet.Token, "", "")

	return &models.Reservation{
		LockToken: leaseSet.Token,
		ExpiresAt: leaseSet.ExpiresAt,
		Provider: models.ProviderSnapshot{
			ID:       provider.ID,
			Name:     provider.Name,
			Category: provider.Category,
			Price:    provider.Price,
		},
	}, nil
}

// Confirm turns a held lease into a durable appointment. Slot keys
// are re-derived from the request fields through the same pure
// function reserve used; keys supplied by the caller are never
// trusted. The invariant protected here: no appointment is ever
// created without a currently valid lease at confirmation time.
func (s *BookingService) Confirm(ctx context.Context, req *models.ConfirmRequest) (*models.Appointment, error) {
	if req.LockToken == "" {
		return nil, domain.NewValidationError("lock_token", "is required")
	}
	provider, err := s.validateRequest(ctx, req.ProviderID, req.ResourceIDs, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	keys := slotkey.Derive(req.ProviderID, req.ResourceIDs, req.Date, req.StartTime)
	resources := effectiveResources(req.ResourceIDs, req.StartTime)

	// Duplicate confirm from a client retry: hand back the record the
	// earlier attempt created instead of erroring or double-booking.
	existing, err := s.repo.FindActiveAppointment(ctx, req.ProviderID, resources, req.Date, req.StartTime)
	if err != nil {
		metrics.IncConfirm("store_error")
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if existing != nil {
		metrics.IncConfirm("duplicate")
		s.publishEvent(events.EventConfirmDuplicate, req.ProviderID, resources, req.Date, req.StartTime, req.LockToken, existing.ID, "")
		return existing, nil
	}

	// A slow payment can outlive the TTL; without a live lease the
	// slot may already belong to someone else, so the client must
	// restart at reserve.
	for _, key := range keys {
		held, err := s.locks.Held(ctx, key, req.LockToken)
		if err != nil {
			metrics.IncConfirm("store_error")
			metrics.IncLeaseStoreError()
			return nil, err
		}
		if !held {
			metrics.IncConfirm("expired")
			s.publishEvent(events.EventReservationExpired, req.ProviderID, resources, req.Date, req.StartTime, req.LockToken, "", "lease missing or token mismatch at confirm")
			return nil, domain.ErrReservationExpired
		}
	}

	verification, err := s.payments.Verify(ctx, req.Payment)
	if err != nil {
		metrics.IncConfirm("payment_error")
		return nil, fmt.Errorf("payment verification failed: %w", err)
	}
	if !verification.Success {
		// Lease stays intact so the client can retry confirm within
		// the remaining TTL.
		metrics.IncConfirm("payment_rejected")
		return nil, domain.ErrPaymentNotVerified
	}

	appt := &models.Appointment{
		ID:            uuid.NewString(),
		ProviderID:    provider.ID,
		ResourceIDs:   resources,
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Status:        models.StatusConfirmed,
		PaymentStatus: models.PaymentStatusPaid,
		PaymentMethod: verification.Method,
		AmountPaid:    verification.AmountConfirmed,
		LockTokenUsed: req.LockToken,
	}

	appt, err = s.createIdempotent(ctx, appt, resources, req)
	if err != nil {
		return nil, err
	}

	// Once the durable record exists the lease only wastes TTL window
	// for competitors, so it is released immediately; the existence
	// check above now blocks any second booking.
	s.locks.ReleaseAll(ctx, keys, req.LockToken)

	metrics.IncConfirm("ok")
	s.publishEvent(events.EventAppointmentConfirmed, req.ProviderID, resources, req.Date, req.StartTime, req.LockToken, appt.ID, "")
	return appt, nil
}

// createIdempotent inserts the appointment, folding a lost creation
// race into "already confirmed". The existence check in Confirm is
// not atomic against creation; the uniqueness index in the store is,
// and a violation means some concurrent confirm won.
func (s *BookingService) createIdempotent(ctx context.Context, appt *models.Appointment, resources []string, req *models.ConfirmRequest) (*models.Appointment, error) {
	err := s.repo.CreateAppointment(ctx, appt)
	if err == nil {
		return appt, nil
	}

	if s.isDuplicateSlot(err) {
		winner, findErr := s.repo.FindActiveAppointment(ctx, req.ProviderID, resources, req.Date, req.StartTime)
		if findErr != nil {
			metrics.IncConfirm("store_error")
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, findErr)
		}
		if winner != nil {
			metrics.IncConfirm("duplicate")
			s.publishEvent(events.EventConfirmDuplicate, req.ProviderID, resources, req.Date, req.StartTime, req.LockToken, winner.ID, "creation race resolved by uniqueness constraint")
			return winner, nil
		}
		metrics.IncConfirm("conflict")
		return nil, domain.ErrSlotConflict
	}

	metrics.IncConfirm("store_error")
	return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

// Cancel releases a pre-confirm reservation. Release is ownership
// checked, so a stale cancel after expiry and re-acquisition is a
// harmless no-op.
func (s *BookingService) Cancel(ctx context.Context, req *models.ReservationRequest, lockToken string) error {
	if lockToken == "" {
		return domain.NewValidationError("lock_token", "is required")
	}
	if _, err := s.validateRequest(ctx, req.ProviderID, req.ResourceIDs, req.Date, req.StartTime, req.EndTime); err != nil {
		return err
	}

	keys := slotkey.DeriveFromRequest(req)
	s.locks.ReleaseAll(ctx, keys, lockToken)

	resources := effectiveResources(req.ResourceIDs, req.StartTime)
	s.publishEvent(events.EventReservationCancelled, req.ProviderID, resources, req.Date, req.StartTime, lockToken, "", "")
	return nil
}

// CancelAppointment voids a confirmed booking and frees its slots.
func (s *BookingService) CancelAppointment(ctx context.Context, id string, version int64) error {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.CancelAppointment(ctx, id, version); err != nil {
		return err
	}

	s.publishEvent(events.EventAppointmentCancelled, appt.ProviderID, appt.ResourceIDs, appt.Date, appt.StartTime, appt.LockTokenUsed, appt.ID, "")
	return nil
}

func (s *BookingService) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	return s.repo.GetAppointment(ctx, id)
}

func (s *BookingService) GetAvailability(ctx context.Context, providerID, date string) ([]*models.Appointment, error) {
	if _, err := s.catalog.GetProvider(ctx, providerID); err != nil {
		return nil, err
	}
	return s.repo.GetAppointmentsByProviderDate(ctx, providerID, date)
}

func (s *BookingService) GetAppointmentsByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Appointment, error) {
	return s.repo.GetAppointmentsByDateRange(ctx, startDate, endDate)
}

// validateRequest rejects malformed requests before any store call
// and resolves the provider from the catalog.
func (s *BookingService) validateRequest(ctx context.Context, providerID string, resourceIDs []string, date, startTime, endTime string) (*models.Provider, error) {
	if providerID == "" {
		return nil, domain.NewValidationError("provider_id", "is required")
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, domain.NewValidationError("date", "expected YYYY-MM-DD")
	}
	start, err := time.Parse(models.TimeLayout, startTime)
	if err != nil {
		return nil, domain.NewValidationError("start_time", "expected HH:MM")
	}
	end, err := time.Parse(models.TimeLayout, endTime)
	if err != nil {
		return nil, domain.NewValidationError("end_time", "expected HH:MM")
	}
	if !end.After(start) {
		return nil, domain.NewValidationError("end_time", "must be after start_time")
	}

	provider, err := s.catalog.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	if len(provider.Staff) > 0 {
		for _, r := range resourceIDs {
			if !provider.HasStaff(r) {
				return nil, domain.NewValidationError("resource_ids", fmt.Sprintf("unknown staff %q for provider %s", r, providerID))
			}
		}
	}

	return provider, nil
}

func (s *BookingService) clampTTL(ttlMillis int64) time.Duration {
	if ttlMillis <= 0 {
		ttlMillis = s.cfg.DefaultTTLMillis
	}
	if ttlMillis < s.cfg.MinTTLMillis {
		ttlMillis = s.cfg.MinTTLMillis
	}
	if ttlMillis > s.cfg.MaxTTLMillis {
		ttlMillis = s.cfg.MaxTTLMillis
	}
	return time.Duration(ttlMillis) * time.Millisecond
}

func (s *BookingService) isDuplicateSlot(err error) bool {
	return errors.Is(err, database.ErrDuplicateSlot)
}

func (s *BookingService) publishEvent(eventType, providerID string, resources []string, date, startTime, lockToken, appointmentID, detail string) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReservationEventPayload{
		AppointmentID: appointmentID,
		ProviderID:    providerID,
		ResourceIDs:   resources,
		Date:          date,
		StartTime:     startTime,
		LockToken:     lockToken,
		Detail:        detail,
		OccurredAt:    time.Now(),
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("lock_token", lockToken).Msg("publish event error")
	}
}

// effectiveResources mirrors slotkey's synthetic-resource and dedup
// rules so the appointment rows claim exactly the units the lease
// covered. Without the dedup a request listing the same staff member
// twice would insert two identical slot rows and trip the uniqueness
// index against itself.
func effectiveResources(resourceIDs []string, startTime string) []string {
	if len(resourceIDs) == 0 {
		return []string{slotkey.SyntheticResourceID(startTime)}
	}

	out := make([]string, 0, len(resourceIDs))
	seen := make(map[string]bool, len(resourceIDs))
	for _, r := range resourceIDs {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
