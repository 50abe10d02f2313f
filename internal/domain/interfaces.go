package domain

import (
	"context"
	"time"

	"slotbook/internal/models"
)

// BookingStore is the durable booking ledger. Every call is scoped to one client.
type BookingStore interface {
	GetBooking(ctx context.Context, clientID, id int64) (*models.Booking, error)
	ListBookings(ctx context.Context, clientID int64, filter models.BookingFilter) ([]*models.Booking, error)
	GetActiveBookings(ctx context.Context, clientID int64, staffID *int64, date string) ([]*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	CreateSeries(ctx context.Context, bookings []*models.Booking) error
	UpdateBookingStatus(ctx context.Context, clientID, id int64, status string) (*models.Booking, error)
	DeleteBooking(ctx context.Context, clientID, id int64) error
}

type StaffDirectory interface {
	GetStaff(ctx context.Context, clientID, id int64) (*models.Staff, error)
	ListActiveStaff(ctx context.Context, clientID int64) ([]*models.Staff, error)
}

type ClientDirectory interface {
	GetClient(ctx context.Context, id int64) (*models.Client, error)
}

type ServiceCatalog interface {
	GetService(ctx context.Context, clientID, id int64) (*models.Service, error)
}

type CustomerStore interface {
	GetCustomer(ctx context.Context, clientID, id int64) (*models.Customer, error)
	FindOrCreateCustomer(ctx context.Context, clientID int64, name, phone, email string) (*models.Customer, error)
}

// Repository is everything the booking service reads and writes.
type Repository interface {
	BookingStore
	StaffDirectory
	ServiceCatalog
	CustomerStore
}

// AvailabilityRepository is the read-only subset the availability engine needs.
type AvailabilityRepository interface {
	ClientDirectory
	StaffDirectory
	ServiceCatalog
	GetActiveBookings(ctx context.Context, clientID int64, staffID *int64, date string) ([]*models.Booking, error)
}

type NotificationStore interface {
	CreateNotificationTask(ctx context.Context, task *models.NotificationTask) error
	GetPendingNotificationTasks(ctx context.Context, limit int) ([]models.NotificationTask, error)
	UpdateNotificationTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
	GetFailedNotificationTasks(ctx context.Context) ([]models.NotificationTask, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// NotificationQueue accepts notification work for asynchronous delivery.
type NotificationQueue interface {
	Enqueue(ctx context.Context, taskType string, booking *models.Booking) error
}

// RateLimitStore counts hits per key in a fixed window.
type RateLimitStore interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// ExportRepository is what the spreadsheet export reads.
type ExportRepository interface {
	ListBookings(ctx context.Context, clientID int64, filter models.BookingFilter) ([]*models.Booking, error)
	ListActiveStaff(ctx context.Context, clientID int64) ([]*models.Staff, error)
}
