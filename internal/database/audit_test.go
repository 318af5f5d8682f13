package database

import (
	"context"
	"testing"

	"bronlock/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditTrail(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	entries := []*models.AuditEntry{
		{ProviderID: "v1", LockToken: "tok-1", EventType: "slot.reserved"},
		{ProviderID: "v1", LockToken: "tok-1", EventType: "appointment.confirmed", AppointmentID: "appt-1", Detail: "payment card"},
		{ProviderID: "v2", LockToken: "tok-2", EventType: "slot.reserved"},
	}
	for _, e := range entries {
		require.NoError(t, db.CreateAuditEntry(ctx, e))
		assert.NotZero(t, e.ID)
	}

	t.Run("ByLockToken", func(t *testing.T) {
		trail, err := db.GetAuditTrailByLockToken(ctx, "tok-1")
		require.NoError(t, err)
		require.Len(t, trail, 2)
		assert.Equal(t, "slot.reserved", trail[0].EventType)
		assert.Equal(t, "appointment.confirmed", trail[1].EventType)
		assert.Equal(t, "payment card", trail[1].Detail)
	})

	t.Run("ByAppointment", func(t *testing.T) {
		trail, err := db.GetAuditTrailByAppointment(ctx, "appt-1")
		require.NoError(t, err)
		require.Len(t, trail, 1)
		assert.Equal(t, "tok-1", trail[0].LockToken)
	})

	t.Run("EmptyTrail", func(t *testing.T) {
		trail, err := db.GetAuditTrailByLockToken(ctx, "unknown")
		require.NoError(t, err)
		assert.Empty(t, trail)
	})
}
