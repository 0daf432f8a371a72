package violation

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
	"github.com/devasol/dlms-backend/internal/services/notification"
)

// RecordInput describes a violation to apply. Exactly one of LicenseNumber
// or UserID must be set; traffic police search by either.
type RecordInput struct {
	LicenseNumber string
	UserID        *uuid.UUID
	Type          string
	Points        int
	Description   string
	Location      string
	Date          time.Time
	RecordedBy    uuid.UUID
}

// RecordResult is the outcome of applying a violation
type RecordResult struct {
	License   *models.License
	Violation *models.Violation
	Suspended bool // suspension happened in this call
}

// ViolationService appends violations and enforces the suspension threshold
type ViolationService struct {
	db       *gorm.DB
	notifier *notification.NotificationService
}

// NewViolationService creates a new violation service
func NewViolationService(db *gorm.DB, notifier *notification.NotificationService) *ViolationService {
	return &ViolationService{db: db, notifier: notifier}
}

// CapPoints adds points without ever exceeding the maximum, even transiently
func CapPoints(current, add, max int) int {
	total := current + add
	if total > max {
		return max
	}
	return total
}

// Record appends a violation to the license, accumulates capped demerit
// points, and suspends the license the moment the cap is reached.
func (s *ViolationService) Record(input RecordInput) (*RecordResult, error) {
	if input.Type == "" {
		return nil, apperrors.NewValidationError("violation type is required")
	}
	if input.Points <= 0 {
		return nil, apperrors.NewValidationError("violation points must be positive")
	}
	if input.LicenseNumber == "" && input.UserID == nil {
		return nil, apperrors.NewValidationError("license number or user id is required")
	}
	if input.Date.IsZero() {
		input.Date = time.Now()
	}

	var license models.License
	var violation models.Violation
	suspendedNow := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		query := database.LockForUpdate(tx)
		if input.LicenseNumber != "" {
			query = query.Where("number = ?", input.LicenseNumber)
		} else {
			query = query.Where("user_id = ?", *input.UserID)
		}

		if err := query.First(&license).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrLicenseNotFound
			}
			return fmt.Errorf("error finding license: %w", err)
		}

		violation = models.Violation{
			LicenseID:   license.ID,
			Type:        input.Type,
			Points:      input.Points,
			Description: input.Description,
			Location:    input.Location,
			Date:        input.Date,
			RecordedBy:  input.RecordedBy,
		}

		if err := tx.Create(&violation).Error; err != nil {
			return fmt.Errorf("error creating violation: %w", err)
		}

		newPoints := CapPoints(license.Points, input.Points, license.MaxPoints)
		license.Points = newPoints

		// The capped total triggers suspension exactly at the threshold,
		// never past it. Already-suspended licenses stay suspended.
		if newPoints >= license.MaxPoints && license.Status != models.LicenseStatusSuspended {
			license.Status = models.LicenseStatusSuspended
			suspendedNow = true
		}

		if err := tx.Save(&license).Error; err != nil {
			return fmt.Errorf("error updating license: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Notifications are a tolerated-failure side effect: the violation is
	// committed whether or not they send.
	s.notifyOwner(&license, &violation, suspendedNow)

	return &RecordResult{License: &license, Violation: &violation, Suspended: suspendedNow}, nil
}

func (s *ViolationService) notifyOwner(license *models.License, violation *models.Violation, suspended bool) {
	if err := s.notifier.Notify(license.UserID, models.NotificationTypeViolation,
		"Traffic violation recorded",
		fmt.Sprintf("A %s violation (%d points) was recorded against license %s. Your total is now %d of %d points.",
			violation.Type, violation.Points, license.Number, license.Points, license.MaxPoints),
	); err != nil {
		log.Error().Err(err).Str("license", license.Number).Msg("failed to send violation notification")
	}

	if suspended {
		if err := s.notifier.Notify(license.UserID, models.NotificationTypeSuspension,
			"License suspended",
			fmt.Sprintf("License %s has been suspended after reaching the maximum of %d demerit points.",
				license.Number, license.MaxPoints),
		); err != nil {
			log.Error().Err(err).Str("license", license.Number).Msg("failed to send suspension notification")
		}
	}
}
