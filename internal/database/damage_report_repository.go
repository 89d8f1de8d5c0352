package database

import (
	"fmt"
	"time"

	"github.com/agrisetu/marketplace-backend/internal/models"
	"github.com/google/uuid"
)

// DamageReportRepository handles damage claim records
type DamageReportRepository struct {
	db DB
}

// NewDamageReportRepository creates a new DamageReportRepository
func NewDamageReportRepository(db DB) *DamageReportRepository {
	return &DamageReportRepository{db: db}
}

// Create inserts a new damage report in pending status
func (r *DamageReportRepository) Create(report *models.DamageReport) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	report.Status = models.DamageReportPending
	report.CreatedAt = time.Now()

	query := `
		INSERT INTO damage_reports (id, booking_id, reporter_id, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(query, report.ID, report.BookingID, report.ReporterID,
		report.Description, report.Status, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert damage report: %w", err)
	}
	return nil
}

// Resolve transitions a damage report to resolved
func (r *DamageReportRepository) Resolve(id string) (int64, error) {
	query := `
		UPDATE damage_reports SET status = $1, resolved_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.Exec(query, models.DamageReportResolved, time.Now(),
		id, models.DamageReportPending)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve damage report: %w", err)
	}
	return result.RowsAffected()
}
