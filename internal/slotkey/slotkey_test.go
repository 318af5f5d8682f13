package slotkey

import (
	"testing"

	"bronlock/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive(t *testing.T) {
	t.Run("SingleStaffBooking", func(t *testing.T) {
		keys := Derive("v1", []string{"staff-01"}, "2024-06-01", "09:00")
		require.Len(t, keys, 1)
		assert.Equal(t, "slot:v1:staff-01:2024-06-01:09_00", keys[0])
	})

	t.Run("Deterministic", func(t *testing.T) {
		a := Derive("v1", []string{"staff-01", "staff-02"}, "2024-06-01", "09:00")
		b := Derive("v1", []string{"staff-02", "staff-01"}, "2024-06-01", "09:00")
		assert.Equal(t, a, b)
	})

	t.Run("TeamBookingOneKeyPerResource", func(t *testing.T) {
		keys := Derive("v1", []string{"staff-01", "staff-02", "staff-03"}, "2024-06-01", "10:00")
		assert.Len(t, keys, 3)
	})

	t.Run("SortedCanonicalOrder", func(t *testing.T) {
		keys := Derive("v1", []string{"zeta", "alpha", "mid"}, "2024-06-01", "10:00")
		require.Len(t, keys, 3)
		assert.Less(t, keys[0], keys[1])
		assert.Less(t, keys[1], keys[2])
	})

	t.Run("DuplicateResourcesCollapse", func(t *testing.T) {
		keys := Derive("v1", []string{"staff-01", "staff-01"}, "2024-06-01", "09:00")
		assert.Len(t, keys, 1)
	})

	t.Run("SyntheticResourceForResourceless", func(t *testing.T) {
		keys := Derive("v3", nil, "2024-06-01", "14:00")
		require.Len(t, keys, 1)
		assert.Contains(t, keys[0], "team@14_00")
	})

	t.Run("TimeQualifiedNeverDayWide", func(t *testing.T) {
		// Same provider and date at two different times must yield
		// different keys, otherwise a reservation at 09:00 would
		// lock the provider's whole day.
		morning := Derive("v1", []string{"staff-01"}, "2024-06-01", "09:00")
		evening := Derive("v1", []string{"staff-01"}, "2024-06-01", "18:00")
		assert.NotEqual(t, morning[0], evening[0])

		teamMorning := Derive("v3", nil, "2024-06-01", "09:00")
		teamEvening := Derive("v3", nil, "2024-06-01", "18:00")
		assert.NotEqual(t, teamMorning[0], teamEvening[0])
	})

	t.Run("FromRequest", func(t *testing.T) {
		req := &models.ReservationRequest{
			ProviderID:  "v1",
			ResourceIDs: []string{"staff-01"},
			Date:        "2024-06-01",
			StartTime:   "09:00",
		}
		assert.Equal(t, Derive("v1", []string{"staff-01"}, "2024-06-01", "09:00"), DeriveFromRequest(req))
	})
}
