package lockmanager

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bronlock/internal/domain"
	"bronlock/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultOpTimeout bounds every single lease-store call. The TTL in
// the store is the real exclusivity mechanism; a hung network call
// must not stretch perceived exclusivity on the client side.
const DefaultOpTimeout = 800 * time.Millisecond

// Manager implements domain.LockManager over a LeaseStore. It holds
// no state between calls; all coordination lives in the store.
type Manager struct {
	store     domain.LeaseStore
	logger    *zerolog.Logger
	opTimeout time.Duration
}

func New(store domain.LeaseStore, logger *zerolog.Logger, opTimeout time.Duration) *Manager {
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	return &Manager{
		store:     store,
		logger:    logger,
		opTimeout: opTimeout,
	}
}

// Acquire claims every key or none of them. Keys are first sorted
// into canonical lexicographic order so two team bookings wanting
// overlapping resource sets can never deadlock each other. On the
// first conflict every already-claimed key of this batch is released
// and ErrSlotConflict is returned; no partial lease set survives.
func (m *Manager) Acquire(ctx context.Context, keys []string, ownerRef string, ttl time.Duration) (*models.LeaseSet, error) {
	if len(keys) == 0 {
		return nil, domain.NewValidationError("keys", "at least one slot key is required")
	}
	if ttl <= 0 {
		return nil, domain.NewValidationError("ttl", "must be positive")
	}

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	token := uuid.NewString()
	expiresAt := time.Now().Add(ttl)

	acquired := make([]models.Lease, 0, len(sorted))
	for _, key := range sorted {
		ok, err := m.setIfAbsent(ctx, key, token, ttl)
		if err != nil {
			m.rollback(key, token, acquired)
			m.logger.Error().Err(err).Str("key", key).Msg("lease store acquire failed")
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		if !ok {
			m.rollback(key, token, acquired)
			return nil, domain.ErrSlotConflict
		}

		acquired = append(acquired, models.Lease{
			Key:       key,
			Token:     token,
			OwnerRef:  ownerRef,
			ExpiresAt: expiresAt,
		})
	}

	return &models.LeaseSet{Token: token, Leases: acquired, ExpiresAt: expiresAt}, nil
}

// Release deletes a single lease if the token still owns it. A stale
// release after expiry and re-acquisition is a no-op.
func (m *Manager) Release(ctx context.Context, key, token string) (bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	ok, err := m.store.DeleteIfOwned(opCtx, key, token)
	if err != nil {
		m.logger.Error().Err(err).Str("key", key).Msg("lease store release failed")
		return false, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return ok, nil
}

// ReleaseAll best-effort releases a batch. Failures are logged, not
// returned: keys that slip through simply expire with the TTL.
func (m *Manager) ReleaseAll(ctx context.Context, keys []string, token string) {
	for _, key := range keys {
		if _, err := m.Release(ctx, key, token); err != nil {
			m.logger.Warn().Err(err).Str("key", key).Msg("lease release failed, will expire via TTL")
		}
	}
}

// Held reports whether token currently owns key.
func (m *Manager) Held(ctx context.Context, key, token string) (bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	current, err := m.store.GetToken(opCtx, key)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return current != "" && current == token, nil
}

func (m *Manager) setIfAbsent(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()
	return m.store.SetIfAbsent(opCtx, key, token, ttl)
}

// rollback compensates a failed batch. Release runs on a fresh
// background context: the caller's context may already be cancelled,
// and leaving half a team booking locked is the worse outcome.
func (m *Manager) rollback(failedKey, token string, acquired []models.Lease) {
	if len(acquired) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.opTimeout*time.Duration(len(acquired)+1))
	defer cancel()

	for _, lease := range acquired {
		if _, err := m.store.DeleteIfOwned(ctx, lease.Key, token); err != nil {
			m.logger.Warn().Err(err).
				Str("key", lease.Key).
				Str("failed_key", failedKey).
				Msg("rollback release failed, lease will expire via TTL")
		}
	}
}
