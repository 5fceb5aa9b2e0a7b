package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"
)

// Repository is a thin wrapper around *sql.DB intended for dependency injection.
type Repository struct {
	DB *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

// OrderRecord is one row of the orders table.
type OrderRecord struct {
	OrderReference string
	ChatID         string
	Phone          string
	Email          string
	DeliveryMethod string
	Amount         float64
	Currency       string
	Status         string
	InvoiceURL     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// InsertOrder inserts or upserts an order row keyed by order reference.
func (r *Repository) InsertOrder(ctx context.Context, rec OrderRecord) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("database not initialized")
	}
	query := `
		INSERT INTO orders (order_reference, chat_id, phone, email, delivery_method, amount, currency, status, invoice_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (order_reference) DO UPDATE SET
			status = EXCLUDED.status,
			invoice_url = EXCLUDED.invoice_url,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := r.DB.ExecContext(ctx, query,
		rec.OrderReference, rec.ChatID, rec.Phone, rec.Email,
		rec.DeliveryMethod, rec.Amount, rec.Currency, rec.Status, rec.InvoiceURL,
	); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	log.Printf("[DB] Inserted/Updated order: %s (%s)", rec.OrderReference, rec.Status)
	return nil
}

// UpdateOrderStatus updates the status of an existing order.
func (r *Repository) UpdateOrderStatus(ctx context.Context, orderReference, status string) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("database not initialized")
	}
	query := `
		UPDATE orders
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE order_reference = $2
	`
	res, err := r.DB.ExecContext(ctx, query, status, orderReference)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("order not found: %s", orderReference)
	}
	log.Printf("[DB] Updated order status: %s -> %s", orderReference, status)
	return nil
}

// GetOrderByReference loads one order row.
func (r *Repository) GetOrderByReference(ctx context.Context, orderReference string) (*OrderRecord, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	query := `
		SELECT order_reference, chat_id, phone, email, delivery_method, amount, currency, status,
		       COALESCE(invoice_url, ''), created_at, updated_at
		FROM orders
		WHERE order_reference = $1
	`
	var rec OrderRecord
	err := r.DB.QueryRowContext(ctx, query, orderReference).Scan(
		&rec.OrderReference, &rec.ChatID, &rec.Phone, &rec.Email,
		&rec.DeliveryMethod, &rec.Amount, &rec.Currency, &rec.Status,
		&rec.InvoiceURL, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListOrdersByChat returns a session's orders, newest first.
func (r *Repository) ListOrdersByChat(ctx context.Context, chatID string) ([]OrderRecord, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	query := `
		SELECT order_reference, chat_id, phone, email, delivery_method, amount, currency, status,
		       COALESCE(invoice_url, ''), created_at, updated_at
		FROM orders
		WHERE chat_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		var rec OrderRecord
		if err := rows.Scan(
			&rec.OrderReference, &rec.ChatID, &rec.Phone, &rec.Email,
			&rec.DeliveryMethod, &rec.Amount, &rec.Currency, &rec.Status,
			&rec.InvoiceURL, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
