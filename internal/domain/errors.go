package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSlotConflict — слот уже занят лизом или активной записью.
	// User-facing; retryable only with a different slot.
	ErrSlotConflict = errors.New("slot is no longer available")

	// ErrReservationExpired — лиз истёк или токен не совпал при confirm.
	ErrReservationExpired = errors.New("reservation expired")

	// ErrStoreUnavailable — инфраструктурная ошибка lease/appointment store.
	// Must never be conflated with ErrSlotConflict.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrPaymentNotVerified — подтверждение без валидной оплаты.
	// The lease is left intact so the client can retry within the TTL.
	ErrPaymentNotVerified = errors.New("payment not verified")

	// ErrProviderNotFound — провайдер или ресурс отсутствует в каталоге.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrAppointmentNotFound возвращается стором при отсутствии записи.
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// ValidationError rejects a malformed request before any store call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
