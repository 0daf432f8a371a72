package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devasol/dlms-backend/internal/services/violation"
)

// ViolationHandler handles traffic police violation reporting
type ViolationHandler struct {
	Violations *violation.ViolationService
}

// NewViolationHandler creates a new violation handler
func NewViolationHandler(violations *violation.ViolationService) *ViolationHandler {
	return &ViolationHandler{Violations: violations}
}

// RecordViolation applies a violation to a license, located by license
// number or by user id
func (h *ViolationHandler) RecordViolation(c *gin.Context) {
	var request struct {
		LicenseNumber string `json:"license_number"`
		UserID        string `json:"user_id"`
		Type          string `json:"type" binding:"required"`
		Points        int    `json:"points" binding:"required"`
		Description   string `json:"description"`
		Location      string `json:"location"`
		Date          string `json:"date"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	input := violation.RecordInput{
		LicenseNumber: request.LicenseNumber,
		Type:          request.Type,
		Points:        request.Points,
		Description:   request.Description,
		Location:      request.Location,
		RecordedBy:    c.MustGet("user_id").(uuid.UUID),
	}

	if request.UserID != "" {
		userID, err := uuid.Parse(request.UserID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID"})
			return
		}
		input.UserID = &userID
	}

	if request.Date != "" {
		date, err := time.Parse("2006-01-02", request.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid date, expected YYYY-MM-DD"})
			return
		}
		input.Date = date
	}

	result, err := h.Violations.Record(input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Violation recorded",
		"license":    result.License,
		"violation":  result.Violation,
		"new_points": result.License.Points,
		"suspended":  result.Suspended,
	})
}
