package models

import "time"

type Booking struct {
	ID               int64     `json:"id"`
	ClientID         int64     `json:"client_id"`
	ServiceID        int64     `json:"service_id"`
	CustomerID       *int64    `json:"customer_id"`
	StaffID          *int64    `json:"staff_id"`
	BookingDate      string    `json:"booking_date"`
	BookingTime      string    `json:"booking_time"`
	Duration         int       `json:"duration"`
	Price            float64   `json:"price"`
	Status           string    `json:"status"`         // pending, confirmed, completed, cancelled
	PaymentStatus    string    `json:"payment_status"` // pending, paid, refunded
	IsRecurring      bool      `json:"is_recurring"`
	RecurringPattern *string   `json:"recurring_pattern"`
	RecurringEndDate *string   `json:"recurring_end_date"`
	ParentBookingID  *int64    `json:"parent_booking_id"`
	Notes            string    `json:"notes"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Joined display names, filled on reads only.
	CustomerName string `json:"customer_name,omitempty"`
	ServiceName  string `json:"service_name,omitempty"`
	StaffName    string `json:"staff_name,omitempty"`
}

// BookingFilter narrows ListBookings. Zero values mean "any".
type BookingFilter struct {
	From    string
	To      string
	StaffID *int64
	Status  string
}

// BookingRequest is the body of a staff/owner booking creation.
type BookingRequest struct {
	ServiceID   int64    `json:"service_id"`
	CustomerID  *int64   `json:"customer_id"`
	StaffID     *int64   `json:"staff_id"`
	BookingDate string   `json:"booking_date"`
	BookingTime string   `json:"booking_time"`
	Duration    int      `json:"duration"`
	Price       *float64 `json:"price"`
	Notes       string   `json:"notes"`
}

// CustomerBookingRequest is the body of a public self-service booking.
type CustomerBookingRequest struct {
	ClientID      int64  `json:"client_id"`
	ServiceID     int64  `json:"service_id"`
	StaffID       *int64 `json:"staff_id"`
	BookingDate   string `json:"booking_date"`
	BookingTime   string `json:"booking_time"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email"`
	Notes         string `json:"notes"`
}

// RecurringBookingRequest is the body of a recurring series creation.
type RecurringBookingRequest struct {
	ServiceID        int64    `json:"service_id"`
	CustomerID       *int64   `json:"customer_id"`
	StaffID          *int64   `json:"staff_id"`
	StartDate        string   `json:"start_date"`
	StartTime        string   `json:"start_time"`
	Duration         int      `json:"duration"`
	Price            *float64 `json:"price"`
	RecurringPattern string   `json:"recurring_pattern"`
	RecurringEndDate string   `json:"recurring_end_date"`
	Notes            string   `json:"notes"`
}

// ConflictReport answers an ad-hoc conflict check.
type ConflictReport struct {
	HasConflict bool       `json:"has_conflict"`
	Conflicts   []*Booking `json:"conflicts"`
}
