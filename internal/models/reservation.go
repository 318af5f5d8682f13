package models

import "time"

// ReservationRequest describes the slot a client wants to hold.
// ResourceIDs holds more than one entry for team/package bookings.
type ReservationRequest struct {
	ProviderID  string   `json:"provider_id"`
	ResourceIDs []string `json:"resource_ids"`
	Date        string   `json:"date"` // YYYY-MM-DD
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	TTLMillis   int64    `json:"ttl_millis,omitempty"`
	OwnerRef    string   `json:"owner_ref,omitempty"`
}

// Reservation is what reserve hands back to the client: the credential
// needed to confirm or cancel, plus the lease deadline.
type Reservation struct {
	LockToken string           `json:"lock_token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Provider  ProviderSnapshot `json:"provider"`
}

// PaymentEvidence is the opaque proof of payment the client presents
// on confirm. The orchestrator never interprets it; the payment
// verifier does.
type PaymentEvidence struct {
	TransactionID string  `json:"transaction_id"`
	Method        string  `json:"method"`
	Amount        float64 `json:"amount"`
	Success       bool    `json:"success"`
}

// ConfirmRequest carries the reservation context again so the service
// can re-derive slot keys itself instead of trusting caller keys.
type ConfirmRequest struct {
	LockToken   string          `json:"lock_token"`
	ProviderID  string          `json:"provider_id"`
	ResourceIDs []string        `json:"resource_ids"`
	Date        string          `json:"date"`
	StartTime   string          `json:"start_time"`
	EndTime     string          `json:"end_time"`
	Payment     PaymentEvidence `json:"payment"`
}
