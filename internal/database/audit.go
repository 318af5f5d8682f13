package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bronlock/internal/models"
)

func (db *DB) CreateAuditEntry(ctx context.Context, entry *models.AuditEntry) error {
	query := `INSERT INTO booking_audit (appointment_id, provider_id, lock_token, event_type, detail, created_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		nullable(entry.AppointmentID),
		entry.ProviderID,
		entry.LockToken,
		entry.EventType,
		nullable(entry.Detail),
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	entry.ID = id
	entry.CreatedAt = now
	return nil
}

// GetAuditTrailByLockToken traces every lifecycle event a reservation
// produced, from reserve through confirm or cancellation.
func (db *DB) GetAuditTrailByLockToken(ctx context.Context, lockToken string) ([]*models.AuditEntry, error) {
	query := `SELECT id, appointment_id, provider_id, lock_token, event_type, detail, created_at
              FROM booking_audit WHERE lock_token = ? ORDER BY created_at ASC, id ASC`
	return db.queryAudit(ctx, query, lockToken)
}

func (db *DB) GetAuditTrailByAppointment(ctx context.Context, appointmentID string) ([]*models.AuditEntry, error) {
	query := `SELECT id, appointment_id, provider_id, lock_token, event_type, detail, created_at
              FROM booking_audit WHERE appointment_id = ? ORDER BY created_at ASC, id ASC`
	return db.queryAudit(ctx, query, appointmentID)
}

func (db *DB) queryAudit(ctx context.Context, query string, arg interface{}) ([]*models.AuditEntry, error) {
	rows, err := db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		e := &models.AuditEntry{}
		var appointmentID, detail sql.NullString
		if err := rows.Scan(&e.ID, &appointmentID, &e.ProviderID, &e.LockToken, &e.EventType, &detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.AppointmentID = appointmentID.String
		e.Detail = detail.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
