package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/devasol/dlms-backend/internal/apperrors"
	"github.com/devasol/dlms-backend/internal/config"
	"github.com/devasol/dlms-backend/internal/database"
	"github.com/devasol/dlms-backend/internal/models"
	"github.com/devasol/dlms-backend/internal/services/eligibility"
	"github.com/devasol/dlms-backend/internal/services/license"
	"github.com/devasol/dlms-backend/internal/services/notification"
)

// PaymentService tracks license fee payments through admin review
type PaymentService struct {
	db          *gorm.DB
	eligibility *eligibility.EligibilityService
	licenses    *license.LicenseService
	notifier    *notification.NotificationService
	cfg         config.LicenseConfig
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB, eligibilitySvc *eligibility.EligibilityService, licenseSvc *license.LicenseService, notifier *notification.NotificationService, cfg config.LicenseConfig) *PaymentService {
	return &PaymentService{
		db:          db,
		eligibility: eligibilitySvc,
		licenses:    licenseSvc,
		notifier:    notifier,
		cfg:         cfg,
	}
}

// Submit records a fee payment for admin review. The user must have passed
// both exams and have no open payment or issued license.
func (s *PaymentService) Submit(userID uuid.UUID, method, transactionID string, paymentDate time.Time, receiptPath string) (*models.Payment, error) {
	result, err := s.eligibility.Evaluate(userID)
	if err != nil {
		return nil, err
	}

	switch result.State {
	case eligibility.StateReadyForPayment:
		// proceed
	case eligibility.StateLicenseIssued:
		return nil, apperrors.NewConflictError("license already issued", result.License)
	case eligibility.StatePaymentSubmitted, eligibility.StatePaymentVerified:
		return nil, apperrors.NewConflictError("payment already submitted", result.Payment)
	default:
		return nil, apperrors.NewValidationError("both exams must be passed before payment: current stage is %s", result.State)
	}

	if method == "" {
		return nil, apperrors.NewValidationError("payment method is required")
	}
	if receiptPath == "" {
		return nil, apperrors.NewValidationError("payment receipt is required")
	}

	payment := models.Payment{
		UserID:        userID,
		Amount:        s.cfg.FeeAmount,
		Currency:      s.cfg.FeeCurrency,
		Method:        method,
		TransactionID: transactionID,
		PaymentDate:   paymentDate,
		ReceiptPath:   receiptPath,
		Status:        models.PaymentStatusPending,
	}

	if err := s.db.Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("error creating payment: %w", err)
	}

	return &payment, nil
}

// Verify marks a pending payment verified and issues the license in the same
// transaction, so a failed issuance rolls the verification back.
func (s *PaymentService) Verify(paymentID, adminID uuid.UUID) (*models.Payment, *models.License, error) {
	var payment models.Payment
	var issued *models.License

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := database.LockForUpdate(tx).First(&payment, "id = ?", paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrPaymentNotFound
			}
			return fmt.Errorf("error finding payment: %w", err)
		}

		if payment.Status != models.PaymentStatusPending {
			return apperrors.NewConflictError(fmt.Sprintf("payment is already %s", payment.Status), payment)
		}

		now := time.Now()
		payment.Status = models.PaymentStatusVerified
		payment.ReviewedAt = &now
		payment.ReviewedBy = &adminID

		if err := tx.Save(&payment).Error; err != nil {
			return fmt.Errorf("error updating payment: %w", err)
		}

		var err error
		issued, err = s.licenses.IssueTx(tx, payment.UserID, adminID, &payment.ID, now)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	if notifErr := s.notifier.Notify(payment.UserID, models.NotificationTypeLicense,
		"License issued",
		fmt.Sprintf("Your payment was verified and license %s has been issued. It is valid until %s.",
			issued.Number, issued.ExpiryDate.Format("2 January 2006")),
	); notifErr != nil {
		log.Error().Err(notifErr).Str("user_id", payment.UserID.String()).Msg("failed to send license issuance notification")
	}

	return &payment, issued, nil
}

// Reject marks a pending payment rejected with the admin's notes. The user
// may resubmit afterward; the rejected record is retained for audit.
func (s *PaymentService) Reject(paymentID, adminID uuid.UUID, notes string) (*models.Payment, error) {
	if notes == "" {
		return nil, apperrors.NewValidationError("rejection notes are required")
	}

	var payment models.Payment
	if err := s.db.First(&payment, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("error finding payment: %w", err)
	}

	if payment.Status != models.PaymentStatusPending {
		return nil, apperrors.NewConflictError(fmt.Sprintf("payment is already %s", payment.Status), payment)
	}

	now := time.Now()
	payment.Status = models.PaymentStatusRejected
	payment.AdminNotes = notes
	payment.ReviewedAt = &now
	payment.ReviewedBy = &adminID

	if err := s.db.Save(&payment).Error; err != nil {
		return nil, fmt.Errorf("error updating payment: %w", err)
	}

	if notifErr := s.notifier.Notify(payment.UserID, models.NotificationTypePayment,
		"Payment rejected",
		fmt.Sprintf("Your license fee payment was rejected: %s. You may submit a new payment.", notes),
	); notifErr != nil {
		log.Error().Err(notifErr).Str("user_id", payment.UserID.String()).Msg("failed to send payment rejection notification")
	}

	return &payment, nil
}

// GetByID returns a payment by id
func (s *PaymentService) GetByID(paymentID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.First(&payment, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("error finding payment: %w", err)
	}
	return &payment, nil
}

// ListByStatus returns payments with the given status, newest first,
// paginated
func (s *PaymentService) ListByStatus(status models.PaymentStatus, page, pageSize int) ([]models.Payment, int64, error) {
	var payments []models.Payment
	offset := (page - 1) * pageSize

	if err := s.db.Where("status = ?", status).
		Order("created_at desc").
		Offset(offset).Limit(pageSize).
		Find(&payments).Error; err != nil {
		return nil, 0, fmt.Errorf("error finding payments: %w", err)
	}

	var count int64
	if err := s.db.Model(&models.Payment{}).Where("status = ?", status).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting payments: %w", err)
	}

	return payments, count, nil
}
