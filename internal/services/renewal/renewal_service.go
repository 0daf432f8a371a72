package renewal

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/devasol/dlms-backend/internal/apperrors"
	"github.com/devasol/dlms-backend/internal/database"
	"github.com/devasol/dlms-backend/internal/models"
	"github.com/devasol/dlms-backend/internal/services/license"
	"github.com/devasol/dlms-backend/internal/services/notification"
	"github.com/devasol/dlms-backend/internal/utils"
)

// validReasons are the accepted renewal reasons. "lost" doubles as the
// replacement pipeline.
var validReasons = map[models.RenewalReason]bool{
	models.RenewalReasonExpiring: true,
	models.RenewalReasonExpired:  true,
	models.RenewalReasonDamaged:  true,
	models.RenewalReasonLost:     true,
}

// RenewalService handles license renewal/replacement requests
type RenewalService struct {
	db       *gorm.DB
	licenses *license.LicenseService
	notifier *notification.NotificationService
}

// NewRenewalService creates a new renewal service
func NewRenewalService(db *gorm.DB, licenseSvc *license.LicenseService, notifier *notification.NotificationService) *RenewalService {
	return &RenewalService{db: db, licenses: licenseSvc, notifier: notifier}
}

// Submit files a renewal request. The citizen re-authenticates with their
// password; one open request per user at a time.
func (s *RenewalService) Submit(email, password string, reason models.RenewalReason, documentPath string) (*models.LicenseRenewal, error) {
	if !validReasons[reason] {
		return nil, apperrors.NewValidationError("invalid renewal reason %q", reason)
	}
	if documentPath == "" {
		return nil, apperrors.NewValidationError("current license document is required")
	}

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	userLicense, err := s.licenses.GetByUserID(user.ID)
	if err != nil {
		return nil, err
	}

	var open models.LicenseRenewal
	err = s.db.Where("user_id = ? AND status IN ?", user.ID,
		[]models.RenewalStatus{models.RenewalStatusPending, models.RenewalStatusUnderReview}).
		First(&open).Error
	if err == nil {
		return nil, apperrors.NewConflictError("a renewal request is already in progress", open)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error finding renewal: %w", err)
	}

	renewal := models.LicenseRenewal{
		UserID:       user.ID,
		LicenseID:    userLicense.ID,
		DocumentPath: documentPath,
		Reason:       reason,
		Status:       models.RenewalStatusPending,
	}

	if err := s.db.Create(&renewal).Error; err != nil {
		return nil, fmt.Errorf("error creating renewal: %w", err)
	}

	return &renewal, nil
}

// Review moves a request to under_review or rejected
func (s *RenewalService) Review(renewalID, adminID uuid.UUID, status models.RenewalStatus, notes string) (*models.LicenseRenewal, error) {
	if status != models.RenewalStatusUnderReview && status != models.RenewalStatusRejected {
		return nil, apperrors.NewValidationError("review status must be %s or %s",
			models.RenewalStatusUnderReview, models.RenewalStatusRejected)
	}

	var renewal models.LicenseRenewal
	if err := s.db.First(&renewal, "id = ?", renewalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRenewalNotFound
		}
		return nil, fmt.Errorf("error finding renewal: %w", err)
	}

	if !renewal.Open() {
		return nil, apperrors.NewConflictError(fmt.Sprintf("renewal is already %s", renewal.Status), renewal)
	}

	now := time.Now()
	renewal.Status = status
	renewal.AdminNotes = notes
	renewal.ReviewedBy = &adminID
	renewal.ReviewedAt = &now

	if err := s.db.Save(&renewal).Error; err != nil {
		return nil, fmt.Errorf("error updating renewal: %w", err)
	}

	if status == models.RenewalStatusRejected {
		if notifErr := s.notifier.Notify(renewal.UserID, models.NotificationTypeRenewal,
			"Renewal rejected",
			fmt.Sprintf("Your license renewal request was rejected. %s", notes),
		); notifErr != nil {
			log.Error().Err(notifErr).Str("renewal_id", renewal.ID.String()).Msg("failed to send renewal rejection notification")
		}
	}

	return &renewal, nil
}

// Approve approves an open request and reissues the license in place: new
// number, validity extended from approval time, suspension and points
// cleared. License mutation and request approval commit together.
func (s *RenewalService) Approve(renewalID, adminID uuid.UUID) (*models.LicenseRenewal, *models.License, error) {
	var renewal models.LicenseRenewal
	var userLicense models.License

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := database.LockForUpdate(tx).First(&renewal, "id = ?", renewalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrRenewalNotFound
			}
			return fmt.Errorf("error finding renewal: %w", err)
		}

		if !renewal.Open() {
			return apperrors.NewConflictError(fmt.Sprintf("renewal is already %s", renewal.Status), renewal)
		}

		if err := database.LockForUpdate(tx).First(&userLicense, "id = ?", renewal.LicenseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrLicenseNotFound
			}
			return fmt.Errorf("error finding license: %w", err)
		}

		now := time.Now()
		if err := s.licenses.RenewTx(tx, &userLicense, now); err != nil {
			return err
		}

		renewal.Status = models.RenewalStatusApproved
		renewal.NewLicenseNumber = userLicense.Number
		renewal.NewLicenseIssued = true
		renewal.ReviewedBy = &adminID
		renewal.ReviewedAt = &now

		if err := tx.Save(&renewal).Error; err != nil {
			return fmt.Errorf("error updating renewal: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if notifErr := s.notifier.Notify(renewal.UserID, models.NotificationTypeRenewal,
		"License renewed",
		fmt.Sprintf("Your renewal was approved. New license number %s, valid until %s.",
			userLicense.Number, userLicense.ExpiryDate.Format("2 January 2006")),
	); notifErr != nil {
		log.Error().Err(notifErr).Str("renewal_id", renewal.ID.String()).Msg("failed to send renewal approval notification")
	}

	return &renewal, &userLicense, nil
}

// GetByID returns a renewal request by id
func (s *RenewalService) GetByID(renewalID uuid.UUID) (*models.LicenseRenewal, error) {
	var renewal models.LicenseRenewal
	if err := s.db.First(&renewal, "id = ?", renewalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRenewalNotFound
		}
		return nil, fmt.Errorf("error finding renewal: %w", err)
	}
	return &renewal, nil
}

// ListByStatus returns renewal requests filtered by status, newest first,
// paginated. An empty status returns everything.
func (s *RenewalService) ListByStatus(status models.RenewalStatus, page, pageSize int) ([]models.LicenseRenewal, int64, error) {
	query := s.db.Model(&models.LicenseRenewal{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting renewals: %w", err)
	}

	var renewals []models.LicenseRenewal
	offset := (page - 1) * pageSize
	if err := query.Order("created_at desc").Offset(offset).Limit(pageSize).Find(&renewals).Error; err != nil {
		return nil, 0, fmt.Errorf("error finding renewals: %w", err)
	}

	return renewals, count, nil
}
