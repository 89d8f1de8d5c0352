package services

import "errors"

// Matching and lifecycle failures surfaced to callers. All of these are
// recovered locally; the handler layer maps them to HTTP statuses.
var (
	// ErrBookingNotFound indicates the booking reference does not exist
	ErrBookingNotFound = errors.New("booking not found")

	// ErrJobUnavailable indicates the booking is not in a claimable state
	ErrJobUnavailable = errors.New("booking is no longer available")

	// ErrItemUnavailable indicates the item does not exist or is not available
	ErrItemUnavailable = errors.New("item is not available")

	// ErrPurposeNotSupported indicates the item has no price for the work purpose
	ErrPurposeNotSupported = errors.New("item does not support the requested work purpose")

	// ErrInsufficientQuantity indicates the item cannot cover the requested quantity
	ErrInsufficientQuantity = errors.New("insufficient quantity available")

	// ErrInvalidOTP indicates the arrival OTP did not match
	ErrInvalidOTP = errors.New("invalid OTP code")

	// ErrNotFound indicates a dispute or damage report does not exist
	ErrNotFound = errors.New("record not found")
)
