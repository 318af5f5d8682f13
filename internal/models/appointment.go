package models

import "time"

type Appointment struct {
	ID            string    `json:"id"`
	ProviderID    string    `json:"provider_id"`
	ResourceIDs   []string  `json:"resource_ids"`
	Date          string    `json:"date"` // YYYY-MM-DD
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	Status        string    `json:"status"` // scheduled, confirmed, cancelled
	PaymentStatus string    `json:"payment_status"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	AmountPaid    float64   `json:"amount_paid,omitempty"`
	LockTokenUsed string    `json:"lock_token_used"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Version       int64     `json:"version"`
}

// IsActive reports whether the appointment still occupies its slot.
func (a *Appointment) IsActive() bool {
	return a.Status != StatusCancelled
}
