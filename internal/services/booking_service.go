package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/agrisetu/marketplace-backend/internal/database"
	"github.com/agrisetu/marketplace-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// BookingService handles booking creation and queries. A single farmer
// action may carry several drafts (multi-item broadcast), each becoming
// its own record.
type BookingService struct {
	db          database.DB
	bookingRepo *database.BookingRepository
	notifier    NotificationSink
	logger      *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(db database.DB, bookingRepo *database.BookingRepository, notifier NotificationSink, logger *logrus.Logger) *BookingService {
	return &BookingService{
		db:          db,
		bookingRepo: bookingRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

// CreateBookings creates one booking per draft, all in one transaction so a
// multi-item request lands whole or not at all. Drafts addressed to a
// specific supplier start as direct requests; the rest open as broadcasts.
func (s *BookingService) CreateBookings(farmerID string, drafts []models.CreateBookingRequest) ([]models.Booking, error) {
	for i := range drafts {
		if err := drafts[i].Validate(); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	bookings := make([]models.Booking, 0, len(drafts))

	for i := range drafts {
		draft := &drafts[i]

		id, err := s.bookingRepo.GenerateBookingID()
		if err != nil {
			return nil, err
		}

		date, err := time.Parse("2006-01-02", draft.Date)
		if err != nil {
			return nil, err
		}

		status := models.BookingStatusSearching
		if draft.SupplierID != nil && *draft.SupplierID != "" {
			status = models.BookingStatusPendingConfirmation
		}

		booking := models.Booking{
			ID:                     id,
			FarmerID:               farmerID,
			ItemCategory:           draft.ItemCategory,
			WorkPurpose:            draft.WorkPurpose,
			Date:                   date,
			StartTime:              draft.StartTime,
			EndTime:                draft.EndTime,
			EstimatedDuration:      draft.EstimatedDuration,
			Location:               draft.Location,
			Quantity:               draft.Quantity,
			OperatorRequired:       draft.OperatorRequired,
			AllowMultipleSuppliers: draft.AllowMultipleSuppliers,
			SupplierID:             draft.SupplierID,
			Status:                 status,
			EstimatedPrice:         draft.EstimatedPrice,
			AdvanceAmount:          draft.AdvanceAmount,
			AdvancePaymentID:       draft.AdvancePaymentID,
		}

		if err := s.bookingRepo.CreateTx(tx, &booking); err != nil {
			return nil, err
		}

		bookings = append(bookings, booking)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bookings: %w", err)
	}

	for i := range bookings {
		booking := &bookings[i]

		s.logger.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"farmer_id":  farmerID,
			"status":     booking.Status,
		}).Info("Booking created")

		if booking.Status == models.BookingStatusPendingConfirmation && booking.SupplierID != nil {
			s.notifier.Notify(*booking.SupplierID,
				"You have a new direct booking request: "+booking.ID+".",
				models.NotificationCategoryBooking)
		}
	}

	return bookings, nil
}

// GetBooking fetches a single booking
func (s *BookingService) GetBooking(id string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

// ListBookings fetches bookings matching the filter
func (s *BookingService) ListBookings(filter models.BookingFilter) ([]models.Booking, error) {
	return s.bookingRepo.List(filter)
}
