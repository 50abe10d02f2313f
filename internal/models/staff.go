package models

import "time"

type Staff struct {
	ID           int64        `json:"id"`
	ClientID     int64        `json:"client_id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone"`
	Role         string       `json:"role"`
	WorkingHours WorkingHours `json:"working_hours"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// StaffSchedule bundles a staff member's template with the slots computed for one date.
type StaffSchedule struct {
	StaffID      int64        `json:"staff_id"`
	Name         string       `json:"name"`
	Role         string       `json:"role"`
	Date         string       `json:"date"`
	IsWorking    bool         `json:"is_working"`
	WorkingHours WorkingHours `json:"working_hours"`
	Slots        []TimeSlot   `json:"slots"`
}
