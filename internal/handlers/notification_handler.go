package handlers

import (
	"net/http"

	"github.com/agrisetu/marketplace-backend/internal/database"
	"github.com/agrisetu/marketplace-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// NotificationHandler lists a user's persisted notifications
type NotificationHandler struct {
	repo *database.NotificationRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(repo *database.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

// ListNotifications returns the authenticated user's notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	user, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.repo.ListByUser(user.UserID, unreadOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "count": len(notifications)})
}

// MarkNotificationRead marks a notification as read
func (h *NotificationHandler) MarkNotificationRead(c *gin.Context) {
	if err := h.repo.MarkRead(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notification read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
