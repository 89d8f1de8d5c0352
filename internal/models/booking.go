package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	BookingStatusSearching           BookingStatus = "searching"
	BookingStatusPendingConfirmation BookingStatus = "pending_confirmation"
	BookingStatusAwaitingOperator    BookingStatus = "awaiting_operator"
	BookingStatusConfirmed           BookingStatus = "confirmed"
	BookingStatusArrived             BookingStatus = "arrived"
	BookingStatusInProcess           BookingStatus = "in_process"
	BookingStatusPendingPayment      BookingStatus = "pending_payment"
	BookingStatusCompleted           BookingStatus = "completed"
	BookingStatusCancelled           BookingStatus = "cancelled"
	BookingStatusExpired             BookingStatus = "expired"
)

// MachineCategories are the equipment categories that may need a hired operator.
// A supplier declining to operate one of these hands the booking off to a driver.
var MachineCategories = []string{"Tractors", "Harvesters", "JCB", "Borewell"}

// IsMachineCategory reports whether the category needs an operator hand-off flow
func IsMachineCategory(category string) bool {
	for _, c := range MachineCategories {
		if c == category {
			return true
		}
	}
	return false
}

// PaymentDetails stores the settlement breakdown for a completed booking
type PaymentDetails struct {
	FarmerAmount   float64   `json:"farmer_amount"`
	SupplierAmount float64   `json:"supplier_amount"`
	Commission     float64   `json:"commission"`
	TotalAmount    float64   `json:"total_amount"`
	PaymentDate    time.Time `json:"payment_date"`
	Method         string    `json:"method"`
}

// IsZero reports whether no payment has been recorded
func (p PaymentDetails) IsZero() bool {
	return p.Method == "" && p.PaymentDate.IsZero()
}

func (p PaymentDetails) Value() (driver.Value, error) {
	if p.IsZero() {
		return nil, nil
	}
	return json.Marshal(p)
}

func (p *PaymentDetails) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentDetails{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, p)
}

// Booking represents a farmer's request to rent or operate an item
type Booking struct {
	ID           string `json:"id" db:"id"`
	FarmerID     string `json:"farmer_id" db:"farmer_id"`
	ItemCategory string `json:"item_category" db:"item_category"`
	WorkPurpose  string `json:"work_purpose" db:"work_purpose"`

	// Schedule
	Date              time.Time `json:"date" db:"date"`
	StartTime         string    `json:"start_time" db:"start_time"` // HH:MM, 24h
	EndTime           *string   `json:"end_time,omitempty" db:"end_time"`
	EstimatedDuration *int      `json:"estimated_duration,omitempty" db:"estimated_duration"` // hours

	Location               string `json:"location" db:"location"`
	Quantity               *int   `json:"quantity,omitempty" db:"quantity"` // nil means whole item
	OperatorRequired       bool   `json:"operator_required" db:"operator_required"`
	AllowMultipleSuppliers bool   `json:"allow_multiple_suppliers" db:"allow_multiple_suppliers"`

	// Assignment (set by the matching engine)
	SupplierID *string  `json:"supplier_id,omitempty" db:"supplier_id"`
	ItemID     *string  `json:"item_id,omitempty" db:"item_id"`
	OperatorID *string  `json:"operator_id,omitempty" db:"operator_id"`
	FinalPrice *float64 `json:"final_price,omitempty" db:"final_price"`

	Status BookingStatus `json:"status" db:"status"`

	// Estimation and advance payment
	EstimatedPrice   *float64 `json:"estimated_price,omitempty" db:"estimated_price"`
	AdvanceAmount    *float64 `json:"advance_amount,omitempty" db:"advance_amount"`
	AdvancePaymentID *string  `json:"advance_payment_id,omitempty" db:"advance_payment_id"`

	// Lifecycle metadata
	OTPCode        *string    `json:"-" db:"otp_code"` // bcrypt hash, never serialized
	OTPVerified    bool       `json:"otp_verified" db:"otp_verified"`
	WorkStartTime  *time.Time `json:"work_start_time,omitempty" db:"work_start_time"`
	DisputeRaised  bool       `json:"dispute_raised" db:"dispute_raised"`
	DisputeResolved bool      `json:"dispute_resolved" db:"dispute_resolved"`
	DamageReported bool       `json:"damage_reported" db:"damage_reported"`
	DiscountAmount float64    `json:"discount_amount" db:"discount_amount"`
	IsRebroadcast  bool       `json:"is_rebroadcast" db:"is_rebroadcast"`

	// Payment
	FinalPaymentID *string        `json:"final_payment_id,omitempty" db:"final_payment_id"`
	PaymentMethod  *string        `json:"payment_method,omitempty" db:"payment_method"`
	PaymentDetails PaymentDetails `json:"payment_details" db:"payment_details"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsTerminal reports whether the booking can no longer change state
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingStatusCompleted ||
		b.Status == BookingStatusCancelled ||
		b.Status == BookingStatusExpired
}

// IsAcceptable reports whether the matching engine may claim this booking
func (b *Booking) IsAcceptable() bool {
	return b.Status == BookingStatusSearching ||
		b.Status == BookingStatusAwaitingOperator ||
		b.Status == BookingStatusPendingConfirmation
}

// RequestedQuantity resolves the quantity a supplier must cover
func (b *Booking) RequestedQuantity() int {
	if b.Quantity != nil {
		return *b.Quantity
	}
	return 1
}

// PayableAmount is the amount settled at completion: the bound price,
// falling back to the pre-match estimate
func (b *Booking) PayableAmount() float64 {
	if b.FinalPrice != nil {
		return *b.FinalPrice
	}
	if b.EstimatedPrice != nil {
		return *b.EstimatedPrice
	}
	return 0
}

// StartDateTime combines the booking date and HH:MM start time
func (b *Booking) StartDateTime() time.Time {
	h, m := parseClock(b.StartTime)
	return time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), h, m, 0, 0, b.Date.Location())
}

// EndDateTime combines the booking date and HH:MM end time, if one was given
func (b *Booking) EndDateTime() (time.Time, bool) {
	if b.EndTime == nil || *b.EndTime == "" {
		return time.Time{}, false
	}
	h, m := parseClock(*b.EndTime)
	return time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), h, m, 0, 0, b.Date.Location()), true
}

func parseClock(s string) (hour, minute int) {
	fmt.Sscanf(s, "%d:%d", &hour, &minute)
	return hour, minute
}

// ============================================================================
// REQUEST/RESPONSE STRUCTS
// ============================================================================

// CreateBookingRequest is a single booking draft. A farmer action may carry
// several drafts at once (multi-item broadcast), each becoming its own record.
type CreateBookingRequest struct {
	ItemCategory           string   `json:"item_category" binding:"required"`
	WorkPurpose            string   `json:"work_purpose" binding:"required"`
	Date                   string   `json:"date" binding:"required"` // YYYY-MM-DD
	StartTime              string   `json:"start_time" binding:"required"`
	EndTime                *string  `json:"end_time,omitempty"`
	EstimatedDuration      *int     `json:"estimated_duration,omitempty"`
	Location               string   `json:"location" binding:"required"`
	Quantity               *int     `json:"quantity,omitempty"`
	OperatorRequired       bool     `json:"operator_required"`
	AllowMultipleSuppliers bool     `json:"allow_multiple_suppliers"`
	SupplierID             *string  `json:"supplier_id,omitempty"` // set for a direct request
	EstimatedPrice         *float64 `json:"estimated_price,omitempty"`
	AdvanceAmount          *float64 `json:"advance_amount,omitempty"`
	AdvancePaymentID       *string  `json:"advance_payment_id,omitempty"`
}

// Validate validates the create booking request
func (r *CreateBookingRequest) Validate() error {
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return errors.New("date must be in YYYY-MM-DD format")
	}
	if r.Quantity != nil && *r.Quantity <= 0 {
		return errors.New("quantity must be at least 1")
	}
	if r.EstimatedDuration != nil && *r.EstimatedDuration <= 0 {
		return errors.New("estimated_duration must be at least 1 hour")
	}
	return nil
}

// AcceptBookingRequest is a supplier's or operator's claim on a booking
type AcceptBookingRequest struct {
	SupplierID        string `json:"supplier_id" binding:"required"`
	ItemID            string `json:"item_id" binding:"required"`
	OperateSelf       *bool  `json:"operate_self,omitempty"`
	QuantityToProvide *int   `json:"quantity_to_provide,omitempty"`
}

// Validate validates the accept booking request
func (r *AcceptBookingRequest) Validate() error {
	if r.QuantityToProvide != nil && *r.QuantityToProvide <= 0 {
		return errors.New("quantity_to_provide must be at least 1")
	}
	return nil
}

// VerifyOTPRequest carries the arrival OTP entered by the supplier
type VerifyOTPRequest struct {
	OTP string `json:"otp" binding:"required"`
}

// FinalPaymentRequest records the settlement method for a pending payment
type FinalPaymentRequest struct {
	Method string `json:"method" binding:"required"` // cash, upi, card
}

// BookingFilter narrows booking list queries
type BookingFilter struct {
	FarmerID   string
	SupplierID string
	Status     string
}
