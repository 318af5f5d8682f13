package models

// PaymentVerification is the result of the external verify call.
type PaymentVerification struct {
	Success         bool    `json:"success"`
	Method          string  `json:"method"`
	AmountConfirmed float64 `json:"amount_confirmed"`
	Reference       string  `json:"reference,omitempty"`
}
