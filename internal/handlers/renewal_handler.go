package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devasol/dlms-backend/internal/config"
	"github.com/devasol/dlms-backend/internal/middleware"
	"github.com/devasol/dlms-backend/internal/models"
	"github.com/devasol/dlms-backend/internal/services/renewal"
	"github.com/devasol/dlms-backend/internal/utils"
)

// RenewalHandler handles license renewal and replacement requests
type RenewalHandler struct {
	Renewals *renewal.RenewalService
	Upload   config.UploadConfig
	limiter  *middleware.RateLimiter
}

// NewRenewalHandler creates a new renewal handler
func NewRenewalHandler(renewals *renewal.RenewalService, upload config.UploadConfig, limiter *middleware.RateLimiter) *RenewalHandler {
	os.MkdirAll(filepath.Join(upload.Dir, "renewals"), 0755)

	return &RenewalHandler{Renewals: renewals, Upload: upload, limiter: limiter}
}

// SubmitRenewal files a renewal request. The citizen re-authenticates with
// their password and uploads proof of the current license.
func (h *RenewalHandler) SubmitRenewal(c *gin.Context) {
	name := c.PostForm("name")
	email := c.PostForm("email")
	password := c.PostForm("password")
	reason := models.RenewalReason(c.PostForm("renewal_reason"))

	if email == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Email and password are required"})
		return
	}

	// Same per-credential throttle as login; this endpoint also takes a password
	if !h.limiter.AllowCredential(email) {
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Too many attempts, please try again later"})
		return
	}

	document, err := c.FormFile("license_document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Current license document is required"})
		return
	}

	if err := utils.ValidateUpload(document, h.Upload.MaxSizeBytes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if name == "" {
		name = email
	}
	documentPath := filepath.Join(h.Upload.Dir, "renewals", utils.UploadFilename("renewal", name, document.Filename))
	if err := c.SaveUploadedFile(document, documentPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save document"})
		return
	}

	created, err := h.Renewals.Submit(email, password, reason, documentPath)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"renewal_id": created.ID,
		"status":     created.Status,
	})
}

// ListRenewals lists renewal requests, optionally filtered by status (admin)
func (h *RenewalHandler) ListRenewals(c *gin.Context) {
	page, pageSize := pagination(c)
	status := models.RenewalStatus(c.Query("status"))

	renewals, total, err := h.Renewals.ListByStatus(status, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"renewals": renewals,
		"pagination": gin.H{
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		},
	})
}

// ReviewRenewal moves a request to under_review or rejects it (admin)
func (h *RenewalHandler) ReviewRenewal(c *gin.Context) {
	renewalID, err := uuid.Parse(c.Param("renewalId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid renewal ID"})
		return
	}

	var request struct {
		Status models.RenewalStatus `json:"status" binding:"required"`
		Notes  string               `json:"notes"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	adminID := c.MustGet("user_id").(uuid.UUID)

	reviewed, err := h.Renewals.Review(renewalID, adminID, request.Status, request.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "renewal": reviewed})
}

// IssueRenewal approves a request and reissues the license (admin)
func (h *RenewalHandler) IssueRenewal(c *gin.Context) {
	renewalID, err := uuid.Parse(c.Param("renewalId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid renewal ID"})
		return
	}

	adminID := c.MustGet("user_id").(uuid.UUID)

	approved, userLicense, err := h.Renewals.Approve(renewalID, adminID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"message":            "Renewal approved and license reissued",
		"renewal":            approved,
		"new_license_number": userLicense.Number,
		"new_expiry_date":    userLicense.ExpiryDate,
	})
}
