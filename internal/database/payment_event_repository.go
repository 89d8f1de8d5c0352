package database

import (
	"fmt"
	"time"
)

// PaymentEventRepository keeps a durable trail of final payments, used by
// the payment-spike fraud signal instead of an in-process timestamp list.
type PaymentEventRepository struct {
	db DB
}

// NewPaymentEventRepository creates a new PaymentEventRepository
func NewPaymentEventRepository(db DB) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

// Record stores one successful final payment
func (r *PaymentEventRepository) Record(bookingID, method string, amount float64) error {
	query := `
		INSERT INTO payment_events (booking_id, method, amount, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.Exec(query, bookingID, method, amount, time.Now()); err != nil {
		return fmt.Errorf("failed to record payment event: %w", err)
	}
	return nil
}

// CountInWindow counts payments within the trailing window
func (r *PaymentEventRepository) CountInWindow(window time.Duration) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM payment_events WHERE created_at > $1`
	if err := r.db.Get(&count, query, time.Now().Add(-window)); err != nil {
		return 0, fmt.Errorf("failed to count payment events: %w", err)
	}
	return count, nil
}
