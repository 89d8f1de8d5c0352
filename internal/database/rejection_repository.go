package database

import (
	"fmt"
	"time"
)

// RejectionRepository tracks direct-request rejections per supplier in a
// durable rolling window, replacing any in-process counter so the count
// survives restarts and stays consistent across instances.
type RejectionRepository struct {
	db DB
}

// NewRejectionRepository creates a new RejectionRepository
func NewRejectionRepository(db DB) *RejectionRepository {
	return &RejectionRepository{db: db}
}

// Record stores one rejection event
func (r *RejectionRepository) Record(supplierID, bookingID string) error {
	query := `
		INSERT INTO supplier_rejections (supplier_id, booking_id, created_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.Exec(query, supplierID, bookingID, time.Now()); err != nil {
		return fmt.Errorf("failed to record rejection: %w", err)
	}
	return nil
}

// CountInWindow counts a supplier's rejections within the trailing window
func (r *RejectionRepository) CountInWindow(supplierID string, window time.Duration) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM supplier_rejections
		WHERE supplier_id = $1 AND created_at > $2
	`
	if err := r.db.Get(&count, query, supplierID, time.Now().Add(-window)); err != nil {
		return 0, fmt.Errorf("failed to count rejections: %w", err)
	}
	return count, nil
}

// CleanupExpired removes rejection records older than the window
func (r *RejectionRepository) CleanupExpired(window time.Duration) (int64, error) {
	result, err := r.db.Exec(
		`DELETE FROM supplier_rejections WHERE created_at < $1`,
		time.Now().Add(-window))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup rejections: %w", err)
	}
	return result.RowsAffected()
}
