package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"slotbook/internal/models"
)

const staffColumns = `id, client_id, name, email, phone, role, working_hours, is_active, created_at, updated_at`

// CreateStaff stores the working-hours template as a JSON array. An empty template is
// stored as NULL and read back as the default one.
func (db *DB) CreateStaff(ctx context.Context, staff *models.Staff) error {
	var hours interface{}
	if len(staff.WorkingHours) > 0 {
		raw, err := json.Marshal(staff.WorkingHours)
		if err != nil {
			return fmt.Errorf("failed to encode working hours: %w", err)
		}
		hours = string(raw)
	}

	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO staff (client_id, name, email, phone, role, working_hours, is_active, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		staff.ClientID, staff.Name, staff.Email, staff.Phone, staff.Role, hours, staff.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create staff: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	staff.ID = id
	staff.CreatedAt = now
	staff.UpdatedAt = now
	return nil
}

// SetStaffWorkingHours overwrites the stored template with a raw value, valid or not.
func (db *DB) SetStaffWorkingHours(ctx context.Context, clientID, staffID int64, raw string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE staff SET working_hours = ?, updated_at = ? WHERE id = ? AND client_id = ?`,
		raw, time.Now().UTC(), staffID, clientID)
	if err != nil {
		return fmt.Errorf("failed to update working hours: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("staff %d: %w", staffID, ErrNotFound)
	}
	return nil
}

func (db *DB) GetStaff(ctx context.Context, clientID, id int64) (*models.Staff, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+staffColumns+` FROM staff WHERE id = ? AND client_id = ?`, id, clientID)
	s, err := db.scanStaff(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("staff %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff: %w", err)
	}
	return s, nil
}

// ListActiveStaff returns the tenant's active staff ordered by id.
func (db *DB) ListActiveStaff(ctx context.Context, clientID int64) ([]*models.Staff, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+staffColumns+` FROM staff WHERE client_id = ? AND is_active = 1 ORDER BY id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	defer rows.Close()

	var staff []*models.Staff
	for rows.Next() {
		s, err := db.scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		staff = append(staff, s)
	}
	return staff, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (db *DB) scanStaff(row rowScanner) (*models.Staff, error) {
	var s models.Staff
	var email, phone, role, hours sql.NullString
	if err := row.Scan(&s.ID, &s.ClientID, &s.Name, &email, &phone, &role, &hours, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Email = email.String
	s.Phone = phone.String
	s.Role = role.String

	wh, err := models.ParseWorkingHours(hours.String)
	if err != nil {
		if hours.Valid && hours.String != "" {
			db.logger.Warn().Err(err).Int64("staff_id", s.ID).Msg("Unreadable working hours, using default template")
		}
		wh = models.DefaultWorkingHours()
	}
	s.WorkingHours = wh
	return &s, nil
}
