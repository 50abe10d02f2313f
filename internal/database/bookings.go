package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"slotbook/internal/models"
	"slotbook/internal/schedule"
)

const bookingSelect = `SELECT b.id, b.client_id, b.service_id, b.customer_id, b.staff_id,
       b.booking_date, b.booking_time, b.duration, b.price, b.status, b.payment_status,
       b.is_recurring, b.recurring_pattern, b.recurring_end_date, b.parent_booking_id,
       COALESCE(b.notes, ''), b.created_at, b.updated_at,
       COALESCE(c.name, ''), COALESCE(s.name, ''), COALESCE(st.name, '')
FROM bookings b
LEFT JOIN customers c ON c.id = b.customer_id
LEFT JOIN services s ON s.id = b.service_id
LEFT JOIN staff st ON st.id = b.staff_id`

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	err := row.Scan(
		&b.ID, &b.ClientID, &b.ServiceID, &b.CustomerID, &b.StaffID,
		&b.BookingDate, &b.BookingTime, &b.Duration, &b.Price, &b.Status, &b.PaymentStatus,
		&b.IsRecurring, &b.RecurringPattern, &b.RecurringEndDate, &b.ParentBookingID,
		&b.Notes, &b.CreatedAt, &b.UpdatedAt,
		&b.CustomerName, &b.ServiceName, &b.StaffName,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func queryBookings(ctx context.Context, q querier, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// GetBooking returns one booking of the tenant with joined display names.
func (db *DB) GetBooking(ctx context.Context, clientID, id int64) (*models.Booking, error) {
	b, err := scanBooking(db.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ? AND b.client_id = ?`, id, clientID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// ListBookings returns the tenant's bookings ordered by date and time.
func (db *DB) ListBookings(ctx context.Context, clientID int64, filter models.BookingFilter) ([]*models.Booking, error) {
	where := []string{"b.client_id = ?"}
	args := []interface{}{clientID}
	if filter.From != "" {
		where = append(where, "b.booking_date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		where = append(where, "b.booking_date <= ?")
		args = append(args, filter.To)
	}
	if filter.StaffID != nil {
		where = append(where, "b.staff_id = ?")
		args = append(args, *filter.StaffID)
	}
	if filter.Status != "" {
		where = append(where, "b.status = ?")
		args = append(args, filter.Status)
	}

	query := bookingSelect + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY b.booking_date, b.booking_time, b.id`
	bookings, err := queryBookings(ctx, db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// GetActiveBookings returns pending and confirmed bookings on date. A nil staffID
// widens the query to every booking of the tenant.
func (db *DB) GetActiveBookings(ctx context.Context, clientID int64, staffID *int64, date string) ([]*models.Booking, error) {
	bookings, err := activeBookings(ctx, db, clientID, staffID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get active bookings: %w", err)
	}
	return bookings, nil
}

func activeBookings(ctx context.Context, q querier, clientID int64, staffID *int64, date string) ([]*models.Booking, error) {
	query := bookingSelect + ` WHERE b.client_id = ? AND b.booking_date = ? AND b.status IN (?, ?)`
	args := []interface{}{clientID, date, models.StatusPending, models.StatusConfirmed}
	if staffID != nil {
		query += ` AND b.staff_id = ?`
		args = append(args, *staffID)
	}
	query += ` ORDER BY b.booking_time, b.id`
	return queryBookings(ctx, q, query, args...)
}

// CreateBooking inserts a booking after re-checking the staff member's active bookings
// inside the same write transaction.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := insertBooking(ctx, tx, booking, time.Now().UTC()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	return nil
}

// CreateSeries inserts all occurrences in one transaction. The first row is the parent;
// every later row points at it. Any clash rolls back the whole series.
func (db *DB) CreateSeries(ctx context.Context, bookings []*models.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	var parentID *int64
	for i, b := range bookings {
		b.ParentBookingID = parentID
		if err := insertBooking(ctx, tx, b, now); err != nil {
			return fmt.Errorf("occurrence %d (%s): %w", i+1, b.BookingDate, err)
		}
		if parentID == nil {
			id := b.ID
			parentID = &id
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit series: %w", err)
	}
	return nil
}

func insertBooking(ctx context.Context, tx *sql.Tx, b *models.Booking, now time.Time) error {
	if b.StaffID != nil && models.IsActiveStatus(b.Status) {
		if err := ensureStaffFree(ctx, tx, b, 0); err != nil {
			return err
		}
	}

	result, err := tx.ExecContext(ctx, `INSERT INTO bookings (
            client_id, service_id, customer_id, staff_id, booking_date, booking_time,
            duration, price, status, payment_status, is_recurring, recurring_pattern,
            recurring_end_date, parent_booking_id, notes, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ClientID, b.ServiceID, b.CustomerID, b.StaffID, b.BookingDate, b.BookingTime,
		b.Duration, b.Price, b.Status, b.PaymentStatus, b.IsRecurring, b.RecurringPattern,
		b.RecurringEndDate, b.ParentBookingID, b.Notes, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// ensureStaffFree fails with ErrSlotTaken when b overlaps an active booking of the same
// staff member on the same date. excludeID skips the booking itself on status updates.
func ensureStaffFree(ctx context.Context, q querier, b *models.Booking, excludeID int64) error {
	start, err := schedule.ParseClock(b.BookingTime)
	if err != nil {
		return fmt.Errorf("booking time: %w", err)
	}

	existing, err := activeBookings(ctx, q, b.ClientID, b.StaffID, b.BookingDate)
	if err != nil {
		return fmt.Errorf("failed to check availability in tx: %w", err)
	}

	reservations := make([]schedule.Reservation, 0, len(existing))
	for _, e := range existing {
		if e.ID == excludeID {
			continue
		}
		at, err := schedule.ParseClock(e.BookingTime)
		if err != nil {
			continue
		}
		reservations = append(reservations, schedule.Reservation{Start: at, Duration: e.Duration})
	}

	if !schedule.IsFree(start, start.Add(b.Duration), reservations) {
		return ErrSlotTaken
	}
	return nil
}

// UpdateBookingStatus changes the status and returns the updated row. Moving a booking
// back into an active status re-runs the staff overlap check.
func (db *DB) UpdateBookingStatus(ctx context.Context, clientID, id int64, status string) (*models.Booking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := scanBooking(tx.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ? AND b.client_id = ?`, id, clientID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if current.StaffID != nil && !models.IsActiveStatus(current.Status) && models.IsActiveStatus(status) {
		if err := ensureStaffFree(ctx, tx, current, current.ID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND client_id = ?`,
		status, now, id, clientID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}
	current.Status = status
	current.UpdatedAt = now
	return current, nil
}

func (db *DB) DeleteBooking(ctx context.Context, clientID, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ? AND client_id = ?`, id, clientID)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	return nil
}
