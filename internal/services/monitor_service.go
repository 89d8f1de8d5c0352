package services

import (
	"fmt"
	"math"
	"time"

	"github.com/agrisetu/marketplace-backend/internal/database"
	"github.com/agrisetu/marketplace-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// MonitorConfig holds the background monitor tuning knobs
type MonitorConfig struct {
	Interval            time.Duration // scan period
	DelayGrace          time.Duration // how late an arrival may be before compensating
	CompensationPercent float64       // fraction of the price refunded for a delay
	PendingHoldTTL      time.Duration // how long a direct request may wait before expiring
}

// DefaultMonitorConfig returns the default monitor configuration
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval:            time.Minute,
		DelayGrace:          20 * time.Minute,
		CompensationPercent: 0.05,
		PendingHoldTTL:      24 * time.Hour,
	}
}

// MonitorService is the periodic background job. It detects arrival delays
// and compensates the farmer, and expires direct requests nobody answered.
// Each booking is processed independently: one failure never aborts the
// rest of the scan, and every check is idempotent against repeated firing.
type MonitorService struct {
	bookingRepo *database.BookingRepository
	notifier    NotificationSink
	config      MonitorConfig
	logger      *logrus.Logger
}

// NewMonitorService creates a new MonitorService
func NewMonitorService(
	bookingRepo *database.BookingRepository,
	notifier NotificationSink,
	config MonitorConfig,
	logger *logrus.Logger,
) *MonitorService {
	return &MonitorService{
		bookingRepo: bookingRepo,
		notifier:    notifier,
		config:      config,
		logger:      logger,
	}
}

// RunChecks executes one monitor pass
func (s *MonitorService) RunChecks() {
	s.CheckDelays()
	s.ExpireStaleRequests()
}

// CheckDelays compensates farmers whose supplier is late: every confirmed
// booking past its start by more than the grace period without a verified
// OTP gets a discount, once. An already-set discount is the dedup signal.
func (s *MonitorService) CheckDelays() {
	cutoff := time.Now().Add(-s.config.DelayGrace)

	delayed, err := s.bookingRepo.ListDelayedConfirmed(cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Delay scan failed")
		return
	}

	for i := range delayed {
		booking := &delayed[i]

		discount := math.Round(booking.PayableAmount() * s.config.CompensationPercent)
		if err := s.bookingRepo.ApplyDelayCompensation(booking.ID, discount); err != nil {
			s.logger.WithError(err).WithField("booking_id", booking.ID).
				Error("Failed to apply delay compensation")
			continue
		}

		s.logger.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"discount":   discount,
		}).Info("Delay compensation applied")

		s.notifier.Notify(booking.FarmerID,
			fmt.Sprintf("Your supplier is running late on booking %s. A compensation of %.0f has been applied.",
				booking.ID, discount),
			models.NotificationCategoryBooking)
		s.notifier.NotifyAdmin(fmt.Sprintf(
			"Supplier late on booking %s; compensation %.0f applied.", booking.ID, discount))
	}
}

// ExpireStaleRequests expires direct requests that waited past the hold TTL
// without a supplier response
func (s *MonitorService) ExpireStaleRequests() {
	cutoff := time.Now().Add(-s.config.PendingHoldTTL)

	stale, err := s.bookingRepo.ListStalePending(cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Stale request scan failed")
		return
	}

	for i := range stale {
		booking := &stale[i]

		booking.Status = models.BookingStatusExpired
		if err := s.bookingRepo.Update(booking); err != nil {
			s.logger.WithError(err).WithField("booking_id", booking.ID).
				Error("Failed to expire booking")
			continue
		}

		s.logger.WithField("booking_id", booking.ID).Info("Expired stale direct request")

		s.notifier.Notify(booking.FarmerID,
			fmt.Sprintf("Booking %s expired without a supplier response. Please submit it again.", booking.ID),
			models.NotificationCategoryBooking)
	}
}
