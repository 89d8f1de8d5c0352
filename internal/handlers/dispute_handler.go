package handlers

import (
	"net/http"

	"github.com/agrisetu/marketplace-backend/internal/middleware"
	"github.com/agrisetu/marketplace-backend/internal/models"
	"github.com/agrisetu/marketplace-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// DisputeHandler exposes the dispute and damage claim subsystem over HTTP
type DisputeHandler struct {
	disputeService *services.DisputeService
}

// NewDisputeHandler creates a new DisputeHandler
func NewDisputeHandler(disputeService *services.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputeService: disputeService}
}

// RaiseDispute flags a booking as disputed
func (h *DisputeHandler) RaiseDispute(c *gin.Context) {
	booking, err := h.disputeService.RaiseDispute(c.Param("id"))
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// ResolveDispute clears an open dispute
func (h *DisputeHandler) ResolveDispute(c *gin.Context) {
	booking, err := h.disputeService.ResolveDispute(c.Param("id"))
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// ReportDamage files a damage claim against a booking
func (h *DisputeHandler) ReportDamage(c *gin.Context) {
	user, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateDamageReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.ReporterID == "" {
		req.ReporterID = user.UserID
	}

	report, err := h.disputeService.ReportDamage(&req)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, report)
}

// ResolveDamageClaim transitions a damage report to resolved
func (h *DisputeHandler) ResolveDamageClaim(c *gin.Context) {
	if err := h.disputeService.ResolveDamageClaim(c.Param("id")); err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
