package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"slotbook/internal/models"
)

func (db *DB) CreateService(ctx context.Context, svc *models.Service) error {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO services (client_id, name, description, duration, price, is_active, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		svc.ClientID, svc.Name, svc.Description, svc.Duration, svc.Price, svc.IsActive, now)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	svc.ID = id
	svc.CreatedAt = now
	return nil
}

// GetService looks a service up within one tenant.
func (db *DB) GetService(ctx context.Context, clientID, id int64) (*models.Service, error) {
	var s models.Service
	var description sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, client_id, name, description, duration, price, is_active, created_at
         FROM services WHERE id = ? AND client_id = ?`, id, clientID,
	).Scan(&s.ID, &s.ClientID, &s.Name, &description, &s.Duration, &s.Price, &s.IsActive, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("service %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	s.Description = description.String
	return &s, nil
}
