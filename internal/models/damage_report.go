package models

import "time"

// DamageReportStatus represents the state of a damage claim
type DamageReportStatus string

const (
	DamageReportPending  DamageReportStatus = "pending"
	DamageReportResolved DamageReportStatus = "resolved"
)

// DamageReport is a damage claim filed against a booking
type DamageReport struct {
	ID          string             `json:"id" db:"id"`
	BookingID   string             `json:"booking_id" db:"booking_id"`
	ReporterID  string             `json:"reporter_id" db:"reporter_id"`
	Description string             `json:"description" db:"description"`
	Status      DamageReportStatus `json:"status" db:"status"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
	ResolvedAt  *time.Time         `json:"resolved_at,omitempty" db:"resolved_at"`
}

// CreateDamageReportRequest files a new damage claim
type CreateDamageReportRequest struct {
	BookingID   string `json:"booking_id" binding:"required"`
	ReporterID  string `json:"reporter_id"`
	Description string `json:"description" binding:"required"`
}
