package models

import "time"

// Lease is a transient TTL-bounded claim on a slot key. It lives only
// in the lease store and is never persisted durably.
type Lease struct {
	Key       string    `json:"key"`
	Token     string    `json:"token"`
	OwnerRef  string    `json:"owner_ref,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LeaseSet is the result of one all-or-nothing multi-key acquisition.
// All leases share the same token and deadline.
type LeaseSet struct {
	Token     string
	Leases    []Lease
	ExpiresAt time.Time
}

// Keys returns the slot keys of the set in acquisition order.
func (s *LeaseSet) Keys() []string {
	keys := make([]string, 0, len(s.Leases))
	for _, l := range s.Leases {
		keys = append(keys, l.Key)
	}
	return keys
}
