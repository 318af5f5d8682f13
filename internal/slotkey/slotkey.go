package slotkey

import (
	"fmt"
	"sort"
	"strings"

	"bronlock/internal/models"
)

const prefix = "slot"

// Derive maps a reservation request to its canonical slot keys, one
// per resource, each time-qualified. Pure and deterministic: equal
// requests always yield the same sorted key set, which is what lets
// the lease store itself arbitrate races.
//
// Keying by (provider, date) alone would lock the provider's whole
// day; startTime must always be part of the key.
func Derive(providerID string, resourceIDs []string, date, startTime string) []string {
	resources := resourceIDs
	if len(resources) == 0 {
		// Resource-less bookings (team packages) get a synthetic
		// per-slot identity so the key stays time-scoped.
		resources = []string{SyntheticResourceID(startTime)}
	}

	keys := make([]string, 0, len(resources))
	seen := make(map[string]bool, len(resources))
	for _, r := range resources {
		k := ForResource(providerID, r, date, startTime)
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}

	// Canonical lexicographic order; all callers acquire in the same
	// order, which rules out circular waits between team bookings.
	sort.Strings(keys)
	return keys
}

// DeriveFromRequest is Derive over a ReservationRequest.
func DeriveFromRequest(req *models.ReservationRequest) []string {
	return Derive(req.ProviderID, req.ResourceIDs, req.Date, req.StartTime)
}

// ForResource builds the key for a single bookable unit.
func ForResource(providerID, resourceID, date, startTime string) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s",
		prefix,
		sanitize(providerID),
		sanitize(resourceID),
		sanitize(date),
		sanitize(startTime),
	)
}

// SyntheticResourceID produces a stable stand-in identity for
// providers without individual staff.
func SyntheticResourceID(startTime string) string {
	return "team@" + startTime
}

func sanitize(part string) string {
	return strings.ReplaceAll(strings.TrimSpace(part), ":", "_")
}
