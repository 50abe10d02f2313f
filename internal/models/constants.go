package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

const (
	PatternWeekly   = "weekly"
	PatternBiweekly = "biweekly"
	PatternMonthly  = "monthly"
)

const (
	RoleClient = "client"
	RoleStaff  = "staff"
)

const (
	// DateLayout is the wire and storage format of booking dates.
	DateLayout = "2006-01-02"
	// TimeLayout is the wire and storage format of times of day.
	TimeLayout = "15:04"
)

const (
	// DefaultSlotDuration is the slot granularity in minutes.
	DefaultSlotDuration = 30

	// DefaultMaxRecurringOccurrences caps a recurring series (two years of weekly visits).
	DefaultMaxRecurringOccurrences = 104

	// DefaultMaxExportDays limits the export range.
	DefaultMaxExportDays = 93

	// NotificationQueueSize размер in-memory очереди воркера уведомлений
	NotificationQueueSize = 128

	// DefaultRateLimitRequests запросов в окне для публичных эндпоинтов
	DefaultRateLimitRequests = 30

	// DefaultRateLimitWindow окно ограничения в секундах
	DefaultRateLimitWindow = 60
)

// ActiveStatuses are the statuses that occupy a slot.
var ActiveStatuses = []string{StatusPending, StatusConfirmed}

// IsValidStatus reports whether s is a known booking status.
func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsActiveStatus reports whether a booking in status s blocks its slot.
func IsActiveStatus(s string) bool {
	return s == StatusPending || s == StatusConfirmed
}
