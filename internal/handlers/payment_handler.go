package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devasol/dlms-backend/internal/config"
	"github.com/devasol/dlms-backend/internal/models"
	"github.com/devasol/dlms-backend/internal/services/eligibility"
	"github.com/devasol/dlms-backend/internal/services/license"
	"github.com/devasol/dlms-backend/internal/services/payment"
	"github.com/devasol/dlms-backend/internal/utils"
)

// PaymentHandler handles license fee payment requests
type PaymentHandler struct {
	Payments    *payment.PaymentService
	Eligibility *eligibility.EligibilityService
	Licenses    *license.LicenseService
	Upload      config.UploadConfig
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments *payment.PaymentService, eligibilitySvc *eligibility.EligibilityService, licenses *license.LicenseService, upload config.UploadConfig) *PaymentHandler {
	// Ensure receipts directory exists
	os.MkdirAll(filepath.Join(upload.Dir, "receipts"), 0755)

	return &PaymentHandler{
		Payments:    payments,
		Eligibility: eligibilitySvc,
		Licenses:    licenses,
		Upload:      upload,
	}
}

// CheckEligibility reports a user's position in the license acquisition flow
func (h *PaymentHandler) CheckEligibility(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID"})
		return
	}

	result, err := h.Eligibility.Evaluate(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := gin.H{
		"success":        true,
		"eligible":       result.Eligible,
		"status":         result.State,
		"requirements":   result.Requirements,
		"payment_amount": result.PaymentAmount,
	}
	if result.License != nil {
		response["license"] = result.License
	}
	if result.Payment != nil {
		response["payment"] = result.Payment
	}

	c.JSON(http.StatusOK, response)
}

// SubmitPayment accepts a multipart fee payment submission with a receipt
func (h *PaymentHandler) SubmitPayment(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	method := c.PostForm("payment_method")
	transactionID := c.PostForm("transaction_id")

	paymentDate := time.Now()
	if raw := c.PostForm("payment_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid payment date, expected YYYY-MM-DD"})
			return
		}
		paymentDate = parsed
	}

	receipt, err := c.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Payment receipt is required"})
		return
	}

	if err := utils.ValidateUpload(receipt, h.Upload.MaxSizeBytes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	ownerName := c.PostForm("user_name")
	if ownerName == "" {
		ownerName = c.GetString("email")
	}
	receiptPath := filepath.Join(h.Upload.Dir, "receipts", utils.UploadFilename("receipt", ownerName, receipt.Filename))
	if err := c.SaveUploadedFile(receipt, receiptPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save receipt"})
		return
	}

	created, err := h.Payments.Submit(userID, method, transactionID, paymentDate, receiptPath)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "payment": created})
}

// VerifyPayment verifies a pending payment and issues the license (admin)
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("paymentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid payment ID"})
		return
	}

	adminID := c.MustGet("user_id").(uuid.UUID)

	verified, issued, err := h.Payments.Verify(paymentID, adminID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment verified and license issued",
		"payment": verified,
		"license": issued,
	})
}

// RejectPayment rejects a pending payment with notes (admin)
func (h *PaymentHandler) RejectPayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("paymentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid payment ID"})
		return
	}

	var request struct {
		Notes string `json:"notes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Rejection notes are required"})
		return
	}

	adminID := c.MustGet("user_id").(uuid.UUID)

	rejected, err := h.Payments.Reject(paymentID, adminID, request.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment rejected",
		"payment": rejected,
	})
}

// GetLicenseByUser returns a user's issued license
func (h *PaymentHandler) GetLicenseByUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID"})
		return
	}

	userLicense, err := h.Licenses.GetByUserID(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "license": userLicense})
}

// ListPendingPayments lists payments awaiting review (admin)
func (h *PaymentHandler) ListPendingPayments(c *gin.Context) {
	page, pageSize := pagination(c)

	status := models.PaymentStatus(c.DefaultQuery("status", string(models.PaymentStatusPending)))

	payments, total, err := h.Payments.ListByStatus(status, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"payments": payments,
		"pagination": gin.H{
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		},
	})
}

// GetPayment returns a single payment (admin)
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("paymentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid payment ID"})
		return
	}

	found, err := h.Payments.GetByID(paymentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "payment": found})
}

// pagination parses page/page_size query parameters with sane bounds
func pagination(c *gin.Context) (int, int) {
	page := 1
	pageSize := 10

	if p, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(c.DefaultQuery("page_size", "10")); err == nil && ps > 0 && ps <= 100 {
		pageSize = ps
	}

	return page, pageSize
}
