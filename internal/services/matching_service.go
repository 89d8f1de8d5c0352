package services

import (
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/agrisetu/marketplace-backend/internal/database"
	"github.com/agrisetu/marketplace-backend/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// MatchingService is the acceptance state machine. It validates a supplier's
// or operator's claim against a booking, prices the assignment and mutates
// booking and item state in a single transaction: the item decrement, the
// booking status write and the optional split record either all land or
// none do.
type MatchingService struct {
	db          database.DB
	bookingRepo *database.BookingRepository
	itemRepo    *database.ItemRepository
	pricing     *PricingService
	notifier    NotificationSink
	logger      *logrus.Logger
}

// NewMatchingService creates a new MatchingService
func NewMatchingService(
	db database.DB,
	bookingRepo *database.BookingRepository,
	itemRepo *database.ItemRepository,
	pricing *PricingService,
	notifier NotificationSink,
	logger *logrus.Logger,
) *MatchingService {
	return &MatchingService{
		db:          db,
		bookingRepo: bookingRepo,
		itemRepo:    itemRepo,
		pricing:     pricing,
		notifier:    notifier,
		logger:      logger,
	}
}

// AcceptBooking processes a supplier's or operator's claim on a booking.
// Returns the booking record that ended up confirmed or advanced (for a
// partial fulfillment that is the newly created slice).
func (s *MatchingService) AcceptBooking(bookingID string, req *models.AcceptBookingRequest) (*models.Booking, error) {
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

	if !booking.IsAcceptable() {
		return nil, ErrJobUnavailable
	}

	item, err := s.itemRepo.GetForUpdate(tx, req.ItemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemUnavailable
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	if !item.Available {
		return nil, ErrItemUnavailable
	}

	switch booking.Status {
	case models.BookingStatusAwaitingOperator:
		return s.attachOperator(tx, booking, item, req)
	case models.BookingStatusPendingConfirmation:
		return s.acceptDirectRequest(tx, booking, item, req)
	default:
		return s.acceptBroadcast(tx, booking, item, req)
	}
}

// attachOperator handles a driver claiming a booking that already has a
// machine bound and is waiting for someone to operate it
func (s *MatchingService) attachOperator(tx *sqlx.Tx, booking *models.Booking, item *models.Item, req *models.AcceptBookingRequest) (*models.Booking, error) {
	// The driver's hourly rate: their listed price for this purpose, or
	// the flat operator charge when the purpose is not in their table.
	rate, ok := item.PurposePrice(booking.WorkPurpose)
	if !ok {
		rate = item.OperatorCharge
	}

	duration := s.pricing.Duration(booking)
	operatorPrice := math.Round(rate * float64(duration))

	price := operatorPrice
	if booking.FinalPrice != nil {
		price += *booking.FinalPrice
	}

	machineSupplierID := booking.SupplierID

	booking.OperatorID = &req.SupplierID
	booking.FinalPrice = &price
	booking.Status = models.BookingStatusConfirmed

	if err := s.itemRepo.ReserveTx(tx, item, 1); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.UpdateTx(tx, booking); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit operator assignment: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"operator_id": req.SupplierID,
		"final_price": price,
	}).Info("Operator attached, booking confirmed")

	s.notifier.Notify(booking.FarmerID,
		fmt.Sprintf("An operator has been found for booking %s. Your booking is confirmed.", booking.ID),
		models.NotificationCategoryBooking)
	if machineSupplierID != nil {
		s.notifier.Notify(*machineSupplierID,
			fmt.Sprintf("An operator has joined booking %s for your machine.", booking.ID),
			models.NotificationCategoryBooking)
	}

	return booking, nil
}

// acceptDirectRequest handles a supplier confirming a request sent
// specifically to them. Quantity is implicitly one.
func (s *MatchingService) acceptDirectRequest(tx *sqlx.Tx, booking *models.Booking, item *models.Item, req *models.AcceptBookingRequest) (*models.Booking, error) {
	if booking.SupplierID != nil && *booking.SupplierID != req.SupplierID {
		return nil, ErrJobUnavailable
	}

	purposePrice, ok := item.PurposePrice(booking.WorkPurpose)
	if !ok {
		return nil, ErrPurposeNotSupported
	}

	demand, err := s.bookingRepo.CountSearchingCompetitors(booking.ItemCategory, booking.Location, booking.ID)
	if err != nil {
		return nil, err
	}

	price, duration := s.pricing.ComputePrice(booking, purposePrice, 1, item.OperatorCharge, booking.OperatorRequired, demand)

	booking.SupplierID = &req.SupplierID
	booking.ItemID = &item.ID
	booking.FinalPrice = &price
	booking.Status = models.BookingStatusConfirmed

	if err := s.itemRepo.ReserveTx(tx, item, 1); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.UpdateTx(tx, booking); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit direct acceptance: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"supplier_id": req.SupplierID,
		"item_id":     item.ID,
		"duration":    duration,
		"final_price": price,
	}).Info("Direct request confirmed")

	s.notifier.Notify(booking.FarmerID,
		fmt.Sprintf("Your request %s has been accepted. Total price: %.0f.", booking.ID, price),
		models.NotificationCategoryBooking)

	return booking, nil
}

// acceptBroadcast handles a supplier claiming an open broadcast, including
// the operator hand-off and partial-quantity fulfillment paths
func (s *MatchingService) acceptBroadcast(tx *sqlx.Tx, booking *models.Booking, item *models.Item, req *models.AcceptBookingRequest) (*models.Booking, error) {
	purposePrice, ok := item.PurposePrice(booking.WorkPurpose)
	if !ok {
		return nil, ErrPurposeNotSupported
	}

	demand, err := s.bookingRepo.CountSearchingCompetitors(booking.ItemCategory, booking.Location, booking.ID)
	if err != nil {
		return nil, err
	}

	machine := models.IsMachineCategory(item.Category)

	// A machine supplier who declines to drive it themself hands the
	// booking over to the operator pool instead of confirming.
	if machine && booking.OperatorRequired && req.OperateSelf != nil && !*req.OperateSelf {
		return s.handOffToOperator(tx, booking, item, req, purposePrice, demand)
	}

	quantity := resolveQuantity(req, booking)

	if item.TracksQuantity() && booking.Quantity != nil && *item.QuantityAvailable < quantity {
		return nil, ErrInsufficientQuantity
	}

	includeOperator := booking.OperatorRequired
	price, _ := s.pricing.ComputePrice(booking, purposePrice, quantity, item.OperatorCharge, includeOperator, demand)

	var operatorID *string
	if machine && booking.OperatorRequired && req.OperateSelf != nil && *req.OperateSelf {
		operatorID = &req.SupplierID
	}

	if booking.AllowMultipleSuppliers && booking.Quantity != nil && quantity < *booking.Quantity {
		return s.splitPartial(tx, booking, item, req, price, quantity, operatorID)
	}

	booking.SupplierID = &req.SupplierID
	booking.ItemID = &item.ID
	booking.OperatorID = operatorID
	booking.FinalPrice = &price
	booking.Quantity = &quantity
	booking.Status = models.BookingStatusConfirmed

	if err := s.itemRepo.ReserveTx(tx, item, quantity); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.UpdateTx(tx, booking); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit acceptance: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"supplier_id": req.SupplierID,
		"item_id":     item.ID,
		"quantity":    quantity,
		"final_price": price,
	}).Info("Broadcast booking confirmed")

	s.notifier.Notify(booking.FarmerID,
		fmt.Sprintf("Your booking %s has been accepted. Total price: %.0f.", booking.ID, price),
		models.NotificationCategoryBooking)

	return booking, nil
}

// handOffToOperator binds the machine but keeps the booking open for a
// driver. The price carries the machine portion only; the operator's share
// is added when a driver claims it.
func (s *MatchingService) handOffToOperator(tx *sqlx.Tx, booking *models.Booking, item *models.Item, req *models.AcceptBookingRequest, purposePrice float64, demand int) (*models.Booking, error) {
	quantity := resolveQuantity(req, booking)
	price, _ := s.pricing.ComputePrice(booking, purposePrice, quantity, item.OperatorCharge, false, demand)

	booking.SupplierID = &req.SupplierID
	booking.ItemID = &item.ID
	booking.FinalPrice = &price
	booking.Quantity = &quantity
	booking.Status = models.BookingStatusAwaitingOperator

	if err := s.itemRepo.ReserveTx(tx, item, quantity); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.UpdateTx(tx, booking); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit operator hand-off: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"supplier_id": req.SupplierID,
		"item_id":     item.ID,
	}).Info("Machine bound, searching for operator")

	s.notifier.Notify(booking.FarmerID,
		fmt.Sprintf("A machine has been reserved for booking %s. We are now finding an operator for you.", booking.ID),
		models.NotificationCategoryBooking)

	return booking, nil
}

// splitPartial confirms the offered slice in a new booking record and
// rewrites the original in place with the remaining quantity, still open.
// The two quantities always sum to the original request.
func (s *MatchingService) splitPartial(tx *sqlx.Tx, booking *models.Booking, item *models.Item, req *models.AcceptBookingRequest, price float64, quantity int, operatorID *string) (*models.Booking, error) {
	sliceID, err := s.bookingRepo.GenerateBookingID()
	if err != nil {
		return nil, err
	}

	slice := *booking
	slice.ID = sliceID
	slice.Quantity = &quantity
	slice.AllowMultipleSuppliers = false
	slice.SupplierID = &req.SupplierID
	slice.ItemID = &item.ID
	slice.OperatorID = operatorID
	slice.FinalPrice = &price
	slice.Status = models.BookingStatusConfirmed

	remaining := *booking.Quantity - quantity
	booking.Quantity = &remaining

	if err := s.bookingRepo.CreateTx(tx, &slice); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.UpdateTx(tx, booking); err != nil {
		return nil, err
	}
	if err := s.itemRepo.ReserveTx(tx, item, quantity); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit partial fulfillment: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"slice_id":    sliceID,
		"supplier_id": req.SupplierID,
		"quantity":    quantity,
		"remaining":   remaining,
	}).Info("Partial fulfillment confirmed")

	s.notifier.Notify(booking.FarmerID,
		fmt.Sprintf("%d of %d units for booking %s are confirmed. We are still searching for the remaining %d.",
			quantity, quantity+remaining, booking.ID, remaining),
		models.NotificationCategoryBooking)

	return &slice, nil
}

// resolveQuantity applies the tie-break: the supplier's offer first, then
// the booking's requested quantity, then one
func resolveQuantity(req *models.AcceptBookingRequest, booking *models.Booking) int {
	if req.QuantityToProvide != nil {
		return *req.QuantityToProvide
	}
	if booking.Quantity != nil {
		return *booking.Quantity
	}
	return 1
}
