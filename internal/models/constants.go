package models

const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const (
	PaymentStatusPaid     = "paid"
	PaymentStatusPending  = "pending"
	PaymentStatusRefunded = "refunded"
)

const (
	// DefaultLeaseTTLMillis время жизни брони до подтверждения (30 минут)
	DefaultLeaseTTLMillis = 30 * 60 * 1000

	// MinLeaseTTLMillis нижняя граница TTL из запроса
	MinLeaseTTLMillis = 50

	// MaxLeaseTTLMillis верхняя граница TTL из запроса (2 часа)
	MaxLeaseTTLMillis = 2 * 60 * 60 * 1000

	// AuditQueueSize размер очереди аудит-воркера
	AuditQueueSize = 1000

	// DateLayout формат даты слота
	DateLayout = "2006-01-02"

	// TimeLayout формат времени слота
	TimeLayout = "15:04"
)
