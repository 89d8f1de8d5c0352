package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agrisetu/marketplace-backend/internal/middleware"
	"github.com/agrisetu/marketplace-backend/internal/models"
	"github.com/agrisetu/marketplace-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// BookingHandler exposes the booking lifecycle over HTTP
type BookingHandler struct {
	bookingService   *services.BookingService
	matchingService  *services.MatchingService
	lifecycleService *services.LifecycleService
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(
	bookingService *services.BookingService,
	matchingService *services.MatchingService,
	lifecycleService *services.LifecycleService,
) *BookingHandler {
	return &BookingHandler{
		bookingService:   bookingService,
		matchingService:  matchingService,
		lifecycleService: lifecycleService,
	}
}

// CreateBookings creates one or more bookings from a farmer's request.
// The body may be a single draft object or an array of drafts.
func (h *BookingHandler) CreateBookings(c *gin.Context) {
	user, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	var drafts []models.CreateBookingRequest
	if err := json.Unmarshal(body, &drafts); err != nil {
		var single models.CreateBookingRequest
		if err := json.Unmarshal(body, &single); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		drafts = []models.CreateBookingRequest{single}
	}

	if len(drafts) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one booking draft is required"})
		return
	}

	bookings, err := h.bookingService.CreateBookings(user.UserID, drafts)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"bookings": bookings})
}

// ListBookings lists bookings filtered by farmer, supplier or status
func (h *BookingHandler) ListBookings(c *gin.Context) {
	filter := models.BookingFilter{
		FarmerID:   c.Query("farmer_id"),
		SupplierID: c.Query("supplier_id"),
		Status:     c.Query("status"),
	}

	bookings, err := h.bookingService.ListBookings(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// GetBooking fetches a single booking by reference
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Param("id"))
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// AcceptBooking processes a supplier's or operator's claim on a booking
func (h *BookingHandler) AcceptBooking(c *gin.Context) {
	var req models.AcceptBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.matchingService.AcceptBooking(c.Param("id"), &req)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// RejectBooking handles a supplier declining a direct request
func (h *BookingHandler) RejectBooking(c *gin.Context) {
	booking, err := h.lifecycleService.RejectBooking(c.Param("id"))
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// CancelBooking cancels a non-terminal booking
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	booking, err := h.lifecycleService.CancelBooking(c.Param("id"))
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// MarkArrived records the supplier's arrival and issues the presence OTP
func (h *BookingHandler) MarkArrived(c *gin.Context) {
	booking, err := h.lifecycleService.MarkArrived(c.Param("id"))
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// VerifyOTP verifies the presence OTP and starts the work clock
func (h *BookingHandler) VerifyOTP(c *gin.Context) {
	var req models.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	booking, err := h.lifecycleService.VerifyOTPAndStartWork(c.Param("id"), req.OTP)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// CompleteBooking settles a finished job
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	booking, err := h.lifecycleService.CompleteBooking(c.Param("id"))
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// MakeFinalPayment records the final settlement for a pending payment
func (h *BookingHandler) MakeFinalPayment(c *gin.Context) {
	var req models.FinalPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	booking, err := h.lifecycleService.MakeFinalPayment(c.Param("id"), req.Method)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// respondBookingError maps service errors to HTTP statuses
func respondBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrBookingNotFound), errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrJobUnavailable), errors.Is(err, services.ErrItemUnavailable),
		errors.Is(err, services.ErrInsufficientQuantity):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrPurposeNotSupported), errors.Is(err, services.ErrInvalidOTP):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
