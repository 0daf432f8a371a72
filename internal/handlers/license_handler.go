package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devasol/dlms-backend/internal/services/license"
)

// LicenseHandler handles license lookups
type LicenseHandler struct {
	Licenses *license.LicenseService
}

// NewLicenseHandler creates a new license handler
func NewLicenseHandler(licenses *license.LicenseService) *LicenseHandler {
	return &LicenseHandler{Licenses: licenses}
}

// GetByNumber returns a license by its number
func (h *LicenseHandler) GetByNumber(c *gin.Context) {
	number := c.Param("number")

	found, err := h.Licenses.GetByNumber(number)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"license":        found,
		"display_status": found.DisplayStatus(time.Now()),
	})
}

// ViolationsByUser returns a user's violation history and point total
func (h *LicenseHandler) ViolationsByUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID"})
		return
	}

	violations, totalPoints, err := h.Licenses.ViolationsForUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"violations":   violations,
		"total_points": totalPoints,
	})
}
