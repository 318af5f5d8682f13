package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

var (
	// ErrDuplicateSlot means the uniqueness index on
	// (provider, resource, date, start_time) rejected the insert:
	// an active appointment already claims one of the slots.
	ErrDuplicateSlot = errors.New("slot already has an active appointment")

	// ErrConcurrentModification means a versioned update matched no row.
	ErrConcurrentModification = errors.New("appointment was modified concurrently")
)

type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("appointment database initialized")
	return &DB{DB: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Таблица записей (durable ground truth for slot occupancy)
		`CREATE TABLE IF NOT EXISTS appointments (
            id TEXT PRIMARY KEY,
            provider_id TEXT NOT NULL,
            resource_ids TEXT NOT NULL,
            date TEXT NOT NULL,
            start_time TEXT NOT NULL,
            end_time TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'scheduled',
            payment_status TEXT NOT NULL DEFAULT 'pending',
            payment_method TEXT,
            amount_paid REAL NOT NULL DEFAULT 0,
            lock_token_used TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            version INTEGER NOT NULL DEFAULT 1
        )`,

		// Slot claim rows, one per resource. The unique index here is
		// what makes two racing confirms for the same window collapse
		// into one appointment. Rows are deleted on cancellation, so
		// the constraint only covers non-cancelled appointments.
		`CREATE TABLE IF NOT EXISTS appointment_slots (
            appointment_id TEXT NOT NULL,
            provider_id TEXT NOT NULL,
            resource_id TEXT NOT NULL,
            date TEXT NOT NULL,
            start_time TEXT NOT NULL,
            FOREIGN KEY (appointment_id) REFERENCES appointments(id) ON DELETE CASCADE
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_slots_unique
            ON appointment_slots(provider_id, resource_id, date, start_time)`,

		// Аудит-трейл (diagnostics only)
		`CREATE TABLE IF NOT EXISTS booking_audit (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            appointment_id TEXT,
            provider_id TEXT NOT NULL,
            lock_token TEXT NOT NULL,
            event_type TEXT NOT NULL,
            detail TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS idx_appointments_provider_date ON appointments(provider_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments(status)`,
		`CREATE INDEX IF NOT EXISTS idx_slots_appointment ON appointment_slots(appointment_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_appointment ON booking_audit(appointment_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_lock_token ON booking_audit(lock_token)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// isUniqueViolation detects the slot uniqueness index firing.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint &&
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func (db *DB) Close() error {
	return db.DB.Close()
}
