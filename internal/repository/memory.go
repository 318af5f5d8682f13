package repository

import (
	"context"
	"sync"
	"time"
)

type leaseEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryLeaseStore is an in-process lease store with lazy expiry.
// Used in tests and Redis-less development runs; it obviously only
// gives mutual exclusion within a single process.
type MemoryLeaseStore struct {
	mu     sync.Mutex
	leases map[string]leaseEntry
	now    func() time.Time
}

func NewMemoryLeaseStore() *MemoryLeaseStore {
	return &MemoryLeaseStore{
		leases: make(map[string]leaseEntry),
		now:    time.Now,
	}
}

func (r *MemoryLeaseStore) SetIfAbsent(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if entry, ok := r.leases[key]; ok && entry.expiresAt.After(now) {
		return false, nil
	}

	r.leases[key] = leaseEntry{token: token, expiresAt: now.Add(ttl)}
	return true, nil
}

func (r *MemoryLeaseStore) DeleteIfOwned(ctx context.Context, key, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.leases[key]
	if !ok || entry.expiresAt.Before(r.now()) || entry.token != token {
		return false, nil
	}

	delete(r.leases, key)
	return true, nil
}

func (r *MemoryLeaseStore) GetToken(ctx context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.leases[key]
	if !ok {
		return "", nil
	}
	if entry.expiresAt.Before(r.now()) {
		delete(r.leases, key)
		return "", nil
	}
	return entry.token, nil
}

// SetClock replaces the time source; tests use it to expire leases
// without sleeping.
func (r *MemoryLeaseStore) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}
