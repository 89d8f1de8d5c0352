package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/agrisetu/marketplace-backend/internal/database"
	"github.com/agrisetu/marketplace-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// DisputeService records disputes and damage claims against bookings.
// Disputes are deliberately flags on the booking rather than their own
// records; damage claims get a full record with a pending/resolved status.
type DisputeService struct {
	bookingRepo *database.BookingRepository
	damageRepo  *database.DamageReportRepository
	notifier    NotificationSink
	logger      *logrus.Logger
}

// NewDisputeService creates a new DisputeService
func NewDisputeService(
	bookingRepo *database.BookingRepository,
	damageRepo *database.DamageReportRepository,
	notifier NotificationSink,
	logger *logrus.Logger,
) *DisputeService {
	return &DisputeService{
		bookingRepo: bookingRepo,
		damageRepo:  damageRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

// RaiseDispute flags a booking as disputed. Any booking may be disputed
// regardless of its status.
func (s *DisputeService) RaiseDispute(bookingID string) (*models.Booking, error) {
	booking, err := s.getBooking(bookingID)
	if err != nil {
		return nil, err
	}

	booking.DisputeRaised = true
	booking.DisputeResolved = false

	if err := s.bookingRepo.Update(booking); err != nil {
		return nil, err
	}

	s.logger.WithField("booking_id", bookingID).Info("Dispute raised")
	s.notifier.NotifyAdmin(fmt.Sprintf("Dispute raised on booking %s.", bookingID))

	return booking, nil
}

// ResolveDispute clears an open dispute
func (s *DisputeService) ResolveDispute(bookingID string) (*models.Booking, error) {
	booking, err := s.getBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.DisputeRaised {
		return nil, ErrNotFound
	}

	booking.DisputeResolved = true

	if err := s.bookingRepo.Update(booking); err != nil {
		return nil, err
	}

	s.logger.WithField("booking_id", bookingID).Info("Dispute resolved")
	s.notifier.Notify(booking.FarmerID,
		fmt.Sprintf("The dispute on booking %s has been resolved.", bookingID),
		models.NotificationCategoryDispute)

	return booking, nil
}

// ReportDamage files a damage claim and stamps the booking
func (s *DisputeService) ReportDamage(req *models.CreateDamageReportRequest) (*models.DamageReport, error) {
	booking, err := s.getBooking(req.BookingID)
	if err != nil {
		return nil, err
	}

	report := &models.DamageReport{
		BookingID:   req.BookingID,
		ReporterID:  req.ReporterID,
		Description: req.Description,
	}
	if err := s.damageRepo.Create(report); err != nil {
		return nil, err
	}

	booking.DamageReported = true
	if err := s.bookingRepo.Update(booking); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": req.BookingID,
		"report_id":  report.ID,
	}).Info("Damage reported")
	s.notifier.NotifyAdmin(fmt.Sprintf("Damage reported on booking %s.", req.BookingID))

	return report, nil
}

// ResolveDamageClaim transitions a pending damage report to resolved
func (s *DisputeService) ResolveDamageClaim(reportID string) error {
	affected, err := s.damageRepo.Resolve(reportID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.logger.WithField("report_id", reportID).Info("Damage claim resolved")
	return nil
}

func (s *DisputeService) getBooking(id string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}
