package services

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/agrisetu/marketplace-backend/internal/database"
	"github.com/agrisetu/marketplace-backend/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// LifecycleConfig holds the abuse and fraud detection thresholds fed by
// lifecycle transitions
type LifecycleConfig struct {
	RejectionThreshold    int           // rejections per supplier before alerting
	RejectionWindow       time.Duration // rolling window for the rejection count
	PaymentSpikeThreshold int           // payments before alerting
	PaymentSpikeWindow    time.Duration // trailing window for the payment count
}

// DefaultLifecycleConfig returns the default detection thresholds
func DefaultLifecycleConfig() LifecycleConfig {
	return LifecycleConfig{
		RejectionThreshold:    3,
		RejectionWindow:       24 * time.Hour,
		PaymentSpikeThreshold: 10,
		PaymentSpikeWindow:    10 * time.Minute,
	}
}

// LifecycleService drives post-confirmation transitions: arrival, OTP
// verification, work completion, final payment, and the cancellation and
// rejection flows.
type LifecycleService struct {
	db            database.DB
	bookingRepo   *database.BookingRepository
	itemRepo      *database.ItemRepository
	rejectionRepo *database.RejectionRepository
	paymentRepo   *database.PaymentEventRepository
	notifier      NotificationSink
	config        LifecycleConfig
	logger        *logrus.Logger
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(
	db database.DB,
	bookingRepo *database.BookingRepository,
	itemRepo *database.ItemRepository,
	rejectionRepo *database.RejectionRepository,
	paymentRepo *database.PaymentEventRepository,
	notifier NotificationSink,
	config LifecycleConfig,
	logger *logrus.Logger,
) *LifecycleService {
	return &LifecycleService{
		db:            db,
		bookingRepo:   bookingRepo,
		itemRepo:      itemRepo,
		rejectionRepo: rejectionRepo,
		paymentRepo:   paymentRepo,
		notifier:      notifier,
		config:        config,
		logger:        logger,
	}
}

// MarkArrived records the supplier's arrival on a confirmed booking,
// generates the presence OTP and notifies the farmer with it. Only the
// bcrypt hash of the code is stored.
func (s *LifecycleService) MarkArrived(bookingID string) (*models.Booking, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	booking, err := s.bookingRepo.GetForUpdate(tx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking.Status != models.BookingStatusConfirmed {
		return nil, ErrJobUnavailable
	}

	otp, err := generateArrivalOTP()
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(otp), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash OTP: %w", err)
	}

	hashStr := string(hash)
	booking.OTPCode = &hashStr
	booking.OTPVerified = false
	booking.Status = models.BookingStatusArrived

	if err := s.bookingRepo.UpdateTx(tx, booking); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit arrival: %w", err)
	}

	s.logger.WithField("booking_id", booking.ID).Info("Supplier marked as arrived")

	s.notifier.Notify(booking.FarmerID,
		fmt.Sprintf("Your supplier has arrived for booking %s. Share OTP %s to start the work.", booking.ID, otp),
		models.NotificationCategoryBooking)

	return booking, nil
}

// VerifyOTPAndStartWork checks the presence OTP and starts the work clock.
// A mismatch fails with ErrInvalidOTP and leaves the booking untouched.
func (s *LifecycleService) VerifyOTPAndStartWork(bookingID, otp string) (*models.Booking, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	booking, err := s.bookingRepo.GetForUpdate(tx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking.Status != models.BookingStatusArrived || booking.OTPCode == nil {
		return nil, ErrJobUnavailable
	}

	if bcrypt.CompareHashAndPassword([]byte(*booking.OTPCode), []byte(otp)) != nil {
		return nil, ErrInvalidOTP
	}

	now := time.Now()
	booking.OTPVerified = true
	booking.WorkStartTime = &now
	booking.Status = models.BookingStatusInProcess

	if err := s.bookingRepo.UpdateTx(tx, booking); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit work start: %w", err)
	}

	s.logger.WithField("booking_id", booking.ID).Info("OTP verified, work started")

	s.notifier.Notify(booking.FarmerID,
		fmt.Sprintf("Work has started on booking %s.", booking.ID),
		models.NotificationCategoryBooking)
	if booking.SupplierID != nil {
		s.notifier.Notify(*booking.SupplierID,
			fmt.Sprintf("OTP verified for booking %s. Work timer started.", booking.ID),
			models.NotificationCategoryBooking)
	}

	return booking, nil
}

// CompleteBooking settles a finished job. Commission is zero, so the whole
// price flows to the supplier. A farmer who already paid the full estimate
// in advance completes immediately reusing the advance payment id; anyone
// else moves to pending payment.
func (s *LifecycleService) CompleteBooking(bookingID string) (*models.Booking, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	booking, err := s.bookingRepo.GetForUpdate(tx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking.Status != models.BookingStatusInProcess {
		return nil, ErrJobUnavailable
	}

	amount := booking.PayableAmount()
	paidInAdvance := booking.AdvanceAmount != nil && booking.EstimatedPrice != nil &&
		*booking.AdvanceAmount == *booking.EstimatedPrice

	if paidInAdvance {
		booking.Status = models.BookingStatusCompleted
		booking.FinalPaymentID = booking.AdvancePaymentID
		booking.PaymentDetails = models.PaymentDetails{
			FarmerAmount:   amount,
			SupplierAmount: amount,
			Commission:     0,
			TotalAmount:    amount,
			PaymentDate:    time.Now(),
			Method:         "advance",
		}
	} else {
		booking.Status = models.BookingStatusPendingPayment
	}

	if err := s.bookingRepo.UpdateTx(tx, booking); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit completion: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":      booking.ID,
		"amount":          amount,
		"paid_in_advance": paidInAdvance,
	}).Info("Booking work completed")

	if paidInAdvance {
		s.notifier.Notify(booking.FarmerID,
			fmt.Sprintf("Booking %s is complete. Your advance payment covered the full amount.", booking.ID),
			models.NotificationCategoryPayment)
	} else {
		s.notifier.Notify(booking.FarmerID,
			fmt.Sprintf("Booking %s is complete. Please settle the final payment of %.0f.", booking.ID, amount),
			models.NotificationCategoryPayment)
	}

	return booking, nil
}

// MakeFinalPayment records the settlement for a booking awaiting payment
// and feeds the payment-spike fraud signal
func (s *LifecycleService) MakeFinalPayment(bookingID, method string) (*models.Booking, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	booking, err := s.bookingRepo.GetForUpdate(tx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking.Status != models.BookingStatusPendingPayment {
		return nil, ErrJobUnavailable
	}

	amount := booking.PayableAmount() - booking.DiscountAmount
	if amount < 0 {
		amount = 0
	}

	paymentID := fmt.Sprintf("final_pay_%d", time.Now().Unix())
	if method == "cash" {
		paymentID = fmt.Sprintf("cash_%d", time.Now().Unix())
	}

	booking.Status = models.BookingStatusCompleted
	booking.FinalPaymentID = &paymentID
	booking.PaymentMethod = &method
	booking.PaymentDetails = models.PaymentDetails{
		FarmerAmount:   amount,
		SupplierAmount: amount,
		Commission:     0,
		TotalAmount:    amount,
		PaymentDate:    time.Now(),
		Method:         method,
	}

	if err := s.bookingRepo.UpdateTx(tx, booking); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"payment_id": paymentID,
		"method":     method,
		"amount":     amount,
	}).Info("Final payment recorded")

	if booking.SupplierID != nil {
		s.notifier.Notify(*booking.SupplierID,
			fmt.Sprintf("Payment of %.0f received for booking %s.", amount, booking.ID),
			models.NotificationCategoryPayment)
	}
	s.notifier.Notify(booking.FarmerID,
		fmt.Sprintf("Payment for booking %s is recorded. Thank you.", booking.ID),
		models.NotificationCategoryPayment)

	s.checkPaymentSpike(booking.ID, method, amount)

	return booking, nil
}

// checkPaymentSpike records the payment event and alerts the admin when the
// trailing window crosses the fraud threshold
func (s *LifecycleService) checkPaymentSpike(bookingID, method string, amount float64) {
	if err := s.paymentRepo.Record(bookingID, method, amount); err != nil {
		s.logger.WithError(err).Error("Failed to record payment event")
		return
	}

	count, err := s.paymentRepo.CountInWindow(s.config.PaymentSpikeWindow)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count payment events")
		return
	}

	if count >= s.config.PaymentSpikeThreshold {
		s.logger.WithField("count", count).Warn("Payment spike detected")
		s.notifier.NotifyAdmin(fmt.Sprintf(
			"Payment spike: %d payments in the last %s.", count, s.config.PaymentSpikeWindow))
	}
}

// CancelBooking cancels any non-terminal booking and returns the bound
// inventory to the item
func (s *LifecycleService) CancelBooking(bookingID string) (*models.Booking, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	booking, err := s.bookingRepo.GetForUpdate(tx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking.IsTerminal() {
		return nil, ErrJobUnavailable
	}

	booking.Status = models.BookingStatusCancelled

	if err := s.bookingRepo.UpdateTx(tx, booking); err != nil {
		return nil, err
	}
	if booking.ItemID != nil {
		if err := s.itemRepo.ReleaseTx(tx, *booking.ItemID, booking.RequestedQuantity()); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	s.logger.WithField("booking_id", booking.ID).Info("Booking cancelled")

	s.notifier.Notify(booking.FarmerID,
		fmt.Sprintf("Booking %s has been cancelled.", booking.ID),
		models.NotificationCategoryBooking)
	if booking.SupplierID != nil {
		s.notifier.Notify(*booking.SupplierID,
			fmt.Sprintf("Booking %s has been cancelled.", booking.ID),
			models.NotificationCategoryBooking)
	}

	return booking, nil
}

// RejectBooking handles a supplier declining a direct request: the booking
// is rebroadcast to the open market and the supplier's rejection count is
// checked against the abuse threshold. The alert fires on every rejection
// at or past the threshold within the window.
func (s *LifecycleService) RejectBooking(bookingID string) (*models.Booking, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	booking, err := s.bookingRepo.GetForUpdate(tx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking.Status != models.BookingStatusPendingConfirmation {
		return nil, ErrJobUnavailable
	}

	var rejectedBy string
	if booking.SupplierID != nil {
		rejectedBy = *booking.SupplierID
	}

	booking.SupplierID = nil
	booking.ItemID = nil
	booking.OperatorID = nil
	booking.FinalPrice = nil
	booking.IsRebroadcast = true
	booking.Status = models.BookingStatusSearching

	if err := s.bookingRepo.UpdateTx(tx, booking); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rejection: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"supplier_id": rejectedBy,
	}).Info("Direct request rejected, rebroadcasting")

	s.notifier.Notify(booking.FarmerID,
		fmt.Sprintf("The supplier declined booking %s. We are broadcasting it to other suppliers.", booking.ID),
		models.NotificationCategoryBooking)

	if rejectedBy != "" {
		s.checkRejectionAbuse(rejectedBy, booking.ID)
	}

	return booking, nil
}

// checkRejectionAbuse records the rejection and alerts the admin when the
// supplier's rolling-window count reaches the threshold
func (s *LifecycleService) checkRejectionAbuse(supplierID, bookingID string) {
	if err := s.rejectionRepo.Record(supplierID, bookingID); err != nil {
		s.logger.WithError(err).Error("Failed to record rejection")
		return
	}

	// Each record doubles as the cleanup trigger for the rolling window
	if _, err := s.rejectionRepo.CleanupExpired(s.config.RejectionWindow); err != nil {
		s.logger.WithError(err).Warn("Failed to trim expired rejections")
	}

	count, err := s.rejectionRepo.CountInWindow(supplierID, s.config.RejectionWindow)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count rejections")
		return
	}

	if count >= s.config.RejectionThreshold {
		s.logger.WithFields(logrus.Fields{
			"supplier_id": supplierID,
			"count":       count,
		}).Warn("Rejection abuse detected")
		s.notifier.NotifyAdmin(fmt.Sprintf(
			"Supplier %s rejected %d direct requests in the last %s.",
			supplierID, count, s.config.RejectionWindow))
	}
}

// generateArrivalOTP returns a uniform random 6-digit code
func generateArrivalOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
