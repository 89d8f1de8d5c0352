package handlers

import (
	"net/http"

	"github.com/agrisetu/marketplace-backend/internal/database"
	"github.com/gin-gonic/gin"
)

// HealthHandler reports service and database health
type HealthHandler struct {
	db database.DB
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health returns the service health status
func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
}
