package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"slotbook/internal/models"
)

func (db *DB) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO customers (client_id, name, phone, email, created_at) VALUES (?, ?, ?, ?, ?)`,
		customer.ClientID, customer.Name, customer.Phone, customer.Email, now)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	customer.ID = id
	customer.CreatedAt = now
	return nil
}

func (db *DB) GetCustomer(ctx context.Context, clientID, id int64) (*models.Customer, error) {
	c, err := db.scanCustomer(db.QueryRowContext(ctx,
		`SELECT id, client_id, name, phone, email, created_at
         FROM customers WHERE id = ? AND client_id = ?`, id, clientID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

// FindOrCreateCustomer matches on phone within the tenant. An existing customer keeps
// its stored name and email.
func (db *DB) FindOrCreateCustomer(ctx context.Context, clientID int64, name, phone, email string) (*models.Customer, error) {
	c, err := db.scanCustomer(db.QueryRowContext(ctx,
		`SELECT id, client_id, name, phone, email, created_at
         FROM customers WHERE client_id = ? AND phone = ? ORDER BY id LIMIT 1`, clientID, phone))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}

	c = &models.Customer{ClientID: clientID, Name: name, Phone: phone, Email: email}
	if err := db.CreateCustomer(ctx, c); err != nil {
		return nil, err
	}
	db.logger.Debug().Int64("client_id", clientID).Int64("customer_id", c.ID).Msg("Customer created from self-service booking")
	return c, nil
}

func (db *DB) scanCustomer(row *sql.Row) (*models.Customer, error) {
	var c models.Customer
	var phone, email sql.NullString
	if err := row.Scan(&c.ID, &c.ClientID, &c.Name, &phone, &email, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Phone = phone.String
	c.Email = email.String
	return &c, nil
}
