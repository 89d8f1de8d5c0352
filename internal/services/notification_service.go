package services

import (
	"github.com/agrisetu/marketplace-backend/internal/database"
	"github.com/agrisetu/marketplace-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// NotificationSink accepts user-facing and admin notifications. Delivery to
// devices is owned by an external push service; the matching path treats
// dispatch as fire-and-forget.
type NotificationSink interface {
	Notify(userID, message, category string)
	NotifyAdmin(message string)
}

// NotificationService persists notifications and logs them
type NotificationService struct {
	repo        *database.NotificationRepository
	adminUserID string
	logger      *logrus.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repo *database.NotificationRepository, adminUserID string, logger *logrus.Logger) *NotificationService {
	return &NotificationService{
		repo:        repo,
		adminUserID: adminUserID,
		logger:      logger,
	}
}

// Notify records a notification for a user. Failures are logged, never
// propagated into the calling flow.
func (s *NotificationService) Notify(userID, message, category string) {
	if userID == "" {
		return
	}

	n := &models.Notification{
		UserID:   userID,
		Message:  message,
		Category: category,
	}
	if err := s.repo.Create(n); err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id":  userID,
			"category": category,
		}).WithError(err).Error("Failed to persist notification")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"category": category,
		"message":  message,
	}).Info("Notification dispatched")
}

// NotifyAdmin records an admin alert
func (s *NotificationService) NotifyAdmin(message string) {
	s.Notify(s.adminUserID, message, models.NotificationCategoryAdmin)
}
