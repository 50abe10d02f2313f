package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"slotbook/internal/models"
)

func (db *DB) CreateClient(ctx context.Context, client *models.Client) error {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO clients (name, email, created_at) VALUES (?, ?, ?)`,
		client.Name, client.Email, now)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	client.ID = id
	client.CreatedAt = now
	return nil
}

func (db *DB) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	var c models.Client
	var email sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM clients WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &email, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("client %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	c.Email = email.String
	return &c, nil
}
