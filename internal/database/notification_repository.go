package database

import (
	"fmt"
	"time"

	"github.com/agrisetu/marketplace-backend/internal/models"
	"github.com/google/uuid"
)

// NotificationRepository persists notifications for later delivery/listing
type NotificationRepository struct {
	db DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification
func (r *NotificationRepository) Create(n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now()

	query := `
		INSERT INTO notifications (id, user_id, message, category, read, created_at)
		VALUES ($1, $2, $3, $4, false, $5)
	`
	if _, err := r.db.Exec(query, n.ID, n.UserID, n.Message, n.Category, n.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// ListByUser fetches a user's notifications, newest first
func (r *NotificationRepository) ListByUser(userID string, unreadOnly bool) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, message, category, read, created_at
		FROM notifications WHERE user_id = $1
	`
	if unreadOnly {
		query += ` AND read = false`
	}
	query += ` ORDER BY created_at DESC`

	notifications := []models.Notification{}
	if err := r.db.Select(&notifications, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks a notification as read
func (r *NotificationRepository) MarkRead(id string) error {
	if _, err := r.db.Exec(`UPDATE notifications SET read = true WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
