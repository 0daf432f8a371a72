package license

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devasol/dlms-backend/internal/apperrors"
	"github.com/devasol/dlms-backend/internal/config"
	"github.com/devasol/dlms-backend/internal/database"
	"github.com/devasol/dlms-backend/internal/models"
)

// LicenseService mints and looks up licenses. One license per user, unique
// numbers from a per-year counter row.
type LicenseService struct {
	db  *gorm.DB
	cfg config.LicenseConfig
}

// NewLicenseService creates a new license service
func NewLicenseService(db *gorm.DB, cfg config.LicenseConfig) *LicenseService {
	return &LicenseService{db: db, cfg: cfg}
}

// Issue mints a license for the user in its own transaction
func (s *LicenseService) Issue(userID, adminID uuid.UUID, paymentID *uuid.UUID) (*models.License, error) {
	var license *models.License
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		license, txErr = s.IssueTx(tx, userID, adminID, paymentID, time.Now())
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return license, nil
}

// IssueTx mints a license inside an existing transaction so payment
// verification and issuance commit or roll back together.
//
// The unique index on licenses.user_id is the real guard against concurrent
// issuance; the upfront lookup exists only to return the conflicting record.
func (s *LicenseService) IssueTx(tx *gorm.DB, userID, adminID uuid.UUID, paymentID *uuid.UUID, now time.Time) (*models.License, error) {
	var existing models.License
	err := tx.Where("user_id = ?", userID).First(&existing).Error
	if err == nil {
		return nil, apperrors.NewConflictError("license already issued", existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error finding license: %w", err)
	}

	number, err := s.nextNumber(tx, now.Year())
	if err != nil {
		return nil, err
	}

	license := models.License{
		UserID:     userID,
		Number:     number,
		Class:      "B",
		IssueDate:  now,
		ExpiryDate: now.AddDate(s.cfg.ValidityYears, 0, 0),
		Status:     models.LicenseStatusValid,
		Points:     0,
		MaxPoints:  s.cfg.MaxPoints,
		IssuedBy:   &adminID,
		PaymentID:  paymentID,
	}

	if err := tx.Create(&license).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewConflictError("license already issued", nil)
		}
		return nil, fmt.Errorf("error creating license: %w", err)
	}

	return &license, nil
}

// nextNumber increments the year's counter under a row lock and formats the
// license number. The lock serializes concurrent issuances so two
// transactions can never read the same sequence value.
func (s *LicenseService) nextNumber(tx *gorm.DB, year int) (string, error) {
	var counter models.LicenseCounter
	err := database.LockForUpdate(tx).
		Where("year = ?", year).
		First(&counter).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("error locking license counter: %w", err)
		}
		counter = models.LicenseCounter{Year: year, Seq: 0}
		if err := tx.Create(&counter).Error; err != nil {
			return "", fmt.Errorf("error creating license counter: %w", err)
		}
	}

	counter.Seq++
	if err := tx.Save(&counter).Error; err != nil {
		return "", fmt.Errorf("error incrementing license counter: %w", err)
	}

	return FormatNumber(s.cfg.NumberPrefix, year, counter.Seq), nil
}

// RenewTx reissues the license in place inside an existing transaction: new
// number, fresh validity window, points cleared, suspension cleared.
func (s *LicenseService) RenewTx(tx *gorm.DB, license *models.License, now time.Time) error {
	number, err := s.nextNumber(tx, now.Year())
	if err != nil {
		return err
	}

	license.Number = number
	license.IssueDate = now
	license.ExpiryDate = now.AddDate(s.cfg.ValidityYears, 0, 0)
	license.Status = models.LicenseStatusValid
	license.Points = 0

	if err := tx.Save(license).Error; err != nil {
		return fmt.Errorf("error renewing license: %w", err)
	}

	return nil
}

// GetByUserID returns the user's license
func (s *LicenseService) GetByUserID(userID uuid.UUID) (*models.License, error) {
	var license models.License
	err := s.db.Where("user_id = ?", userID).First(&license).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLicenseNotFound
		}
		return nil, fmt.Errorf("error finding license: %w", err)
	}
	return &license, nil
}

// GetByNumber returns the license with the given number
func (s *LicenseService) GetByNumber(number string) (*models.License, error) {
	var license models.License
	err := s.db.Where("number = ?", number).First(&license).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLicenseNotFound
		}
		return nil, fmt.Errorf("error finding license: %w", err)
	}
	return &license, nil
}

// ViolationsForUser returns the user's violation history and point total
func (s *LicenseService) ViolationsForUser(userID uuid.UUID) ([]models.Violation, int, error) {
	license, err := s.GetByUserID(userID)
	if err != nil {
		return nil, 0, err
	}

	var violations []models.Violation
	if err := s.db.Where("license_id = ?", license.ID).Order("date desc").Find(&violations).Error; err != nil {
		return nil, 0, fmt.Errorf("error finding violations: %w", err)
	}

	return violations, license.Points, nil
}
