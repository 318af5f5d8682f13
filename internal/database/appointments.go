package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"bronlock/internal/domain"
	"bronlock/internal/models"
)

const appointmentColumns = `id, provider_id, resource_ids, date, start_time, end_time,
                 status, payment_status, payment_method, amount_paid,
                 lock_token_used, created_at, updated_at, version`

// CreateAppointment inserts the appointment and one slot claim row
// per resource in a single transaction. The unique index on the slot
// rows turns a lost race between two confirms into ErrDuplicateSlot
// instead of a double booking.
func (db *DB) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	queryInsert := `INSERT INTO appointments (
				id, provider_id, resource_ids, date, start_time, end_time,
				status, payment_status, payment_method, amount_paid,
				lock_token_used, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, queryInsert,
		appt.ID,
		appt.ProviderID,
		strings.Join(appt.ResourceIDs, ","),
		appt.Date,
		appt.StartTime,
		appt.EndTime,
		appt.Status,
		appt.PaymentStatus,
		appt.PaymentMethod,
		appt.AmountPaid,
		appt.LockTokenUsed,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert appointment: %w", err)
	}

	querySlot := `INSERT INTO appointment_slots (appointment_id, provider_id, resource_id, date, start_time)
              VALUES (?, ?, ?, ?, ?)`
	for _, resourceID := range appt.ResourceIDs {
		if _, err := tx.ExecContext(ctx, querySlot, appt.ID, appt.ProviderID, resourceID, appt.Date, appt.StartTime); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateSlot
			}
			return fmt.Errorf("failed to insert slot claim: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit appointment: %w", err)
	}

	appt.CreatedAt = now
	appt.UpdatedAt = now
	appt.Version = 1
	return nil
}

func (db *DB) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ?`
	appt, err := db.scanAppointment(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appt, nil
}

// FindActiveAppointment returns the non-cancelled appointment
// claiming any of the given resources for the window, or nil. This is
// the idempotency lookup confirm relies on.
func (db *DB) FindActiveAppointment(ctx context.Context, providerID string, resourceIDs []string, date, startTime string) (*models.Appointment, error) {
	if len(resourceIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(resourceIDs))
	placeholders = placeholders[:len(placeholders)-1]

	query := `SELECT a.id, a.provider_id, a.resource_ids, a.date, a.start_time, a.end_time,
                 a.status, a.payment_status, a.payment_method, a.amount_paid,
                 a.lock_token_used, a.created_at, a.updated_at, a.version
              FROM appointments a
              JOIN appointment_slots s ON s.appointment_id = a.id
              WHERE s.provider_id = ? AND s.date = ? AND s.start_time = ?
                AND s.resource_id IN (` + placeholders + `)
                AND a.status != ?
              LIMIT 1`

	args := make([]interface{}, 0, len(resourceIDs)+4)
	args = append(args, providerID, date, startTime)
	for _, r := range resourceIDs {
		args = append(args, r)
	}
	args = append(args, models.StatusCancelled)

	appt, err := db.scanAppointment(db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active appointment: %w", err)
	}
	return appt, nil
}

// CancelAppointment marks the appointment cancelled and frees its
// slot claims so the window becomes bookable again. Versioned to
// reject concurrent modifications.
func (db *DB) CancelAppointment(ctx context.Context, id string, version int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	queryUpdate := `UPDATE appointments SET status = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ? AND status != ?`
	result, err := tx.ExecContext(ctx, queryUpdate, models.StatusCancelled, time.Now(), id, version, models.StatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM appointment_slots WHERE appointment_id = ?`, id); err != nil {
		return fmt.Errorf("failed to release slot claims: %w", err)
	}

	return tx.Commit()
}

func (db *DB) GetAppointmentsByProviderDate(ctx context.Context, providerID, date string) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
              WHERE provider_id = ? AND date = ? ORDER BY start_time ASC`
	rows, err := db.QueryContext(ctx, query, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointments for provider: %w", err)
	}
	defer rows.Close()

	return db.collectAppointments(rows)
}

func (db *DB) GetAppointmentsByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
              WHERE date >= ? AND date <= ? ORDER BY date ASC, start_time ASC`
	rows, err := db.QueryContext(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointments by date range: %w", err)
	}
	defer rows.Close()

	return db.collectAppointments(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (db *DB) scanAppointment(row rowScanner) (*models.Appointment, error) {
	var appt models.Appointment
	var resourceIDs string
	var paymentMethod sql.NullString
	err := row.Scan(
		&appt.ID, &appt.ProviderID, &resourceIDs, &appt.Date, &appt.StartTime, &appt.EndTime,
		&appt.Status, &appt.PaymentStatus, &paymentMethod, &appt.AmountPaid,
		&appt.LockTokenUsed, &appt.CreatedAt, &appt.UpdatedAt, &appt.Version,
	)
	if err != nil {
		return nil, err
	}
	if resourceIDs != "" {
		appt.ResourceIDs = strings.Split(resourceIDs, ",")
	}
	appt.PaymentMethod = paymentMethod.String
	return &appt, nil
}

func (db *DB) collectAppointments(rows *sql.Rows) ([]*models.Appointment, error) {
	var appointments []*models.Appointment
	for rows.Next() {
		appt, err := db.scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return appointments, nil
}
