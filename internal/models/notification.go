package models

import "time"

// Notification categories routed through the notification sink
const (
	NotificationCategoryBooking  = "booking"
	NotificationCategoryPayment  = "payment"
	NotificationCategoryDispute  = "dispute"
	NotificationCategoryAdmin    = "admin"
)

// Notification is a message delivered to a user. Delivery transport
// (push/SMS) is external; this backend persists and exposes them.
type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Message   string    `json:"message" db:"message"`
	Category  string    `json:"category" db:"category"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
