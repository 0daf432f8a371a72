package eligibility

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devasol/dlms-backend/internal/apperrors"
	"github.com/devasol/dlms-backend/internal/config"
	"github.com/devasol/dlms-backend/internal/models"
)

// State is the derived position of a user in the license acquisition flow
type State string

const (
	StateAwaitingTheory    State = "awaiting_theory"
	StateAwaitingPractical State = "awaiting_practical"
	StateReadyForPayment   State = "ready_for_payment"
	StatePaymentSubmitted  State = "payment_submitted"
	StatePaymentVerified   State = "payment_verified"
	StateLicenseIssued     State = "license_issued"
)

// Requirements reports the underlying facts the state was derived from
type Requirements struct {
	TheoryPassed    bool               `json:"theory_passed"`
	PracticalPassed bool               `json:"practical_passed"`
	PaymentVerified bool               `json:"payment_verified"`
	TheoryResult    *models.ExamResult `json:"theory_result,omitempty"`
	PracticalResult *models.ExamResult `json:"practical_result,omitempty"`
}

// Result is the outcome of an eligibility evaluation
type Result struct {
	State         State           `json:"status"`
	Eligible      bool            `json:"eligible"`
	Requirements  Requirements    `json:"requirements"`
	License       *models.License `json:"license,omitempty"`
	Payment       *models.Payment `json:"payment,omitempty"`
	PaymentAmount float64         `json:"payment_amount"`
}

// EligibilityService derives license-acquisition eligibility from exam,
// payment and license records. Read-only.
type EligibilityService struct {
	db  *gorm.DB
	cfg config.LicenseConfig
}

// NewEligibilityService creates a new eligibility service
func NewEligibilityService(db *gorm.DB, cfg config.LicenseConfig) *EligibilityService {
	return &EligibilityService{db: db, cfg: cfg}
}

// DeriveState computes the flow state from the three underlying facts.
// Precedence: issued license, then open payment, then exam progress.
func DeriveState(license *models.License, payment *models.Payment, theoryPassed, practicalPassed bool) State {
	switch {
	case license != nil:
		return StateLicenseIssued
	case payment != nil && payment.Status == models.PaymentStatusVerified:
		return StatePaymentVerified
	case payment != nil && payment.Status == models.PaymentStatusPending:
		return StatePaymentSubmitted
	case theoryPassed && practicalPassed:
		return StateReadyForPayment
	case theoryPassed:
		return StateAwaitingPractical
	default:
		return StateAwaitingTheory
	}
}

// Evaluate determines whether the user may proceed to payment and reports
// the current stage
func (s *EligibilityService) Evaluate(userID uuid.UUID) (*Result, error) {
	var user models.User
	if err := s.db.Select("id").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	license, err := s.findLicense(userID)
	if err != nil {
		return nil, err
	}

	payment, err := s.CurrentPayment(userID)
	if err != nil {
		return nil, err
	}

	theory, err := s.latestResult(userID, models.ExamTypeTheory)
	if err != nil {
		return nil, err
	}

	practical, err := s.latestResult(userID, models.ExamTypePractical)
	if err != nil {
		return nil, err
	}

	theoryPassed := theory != nil && theory.Passed
	practicalPassed := practical != nil && practical.Passed

	state := DeriveState(license, payment, theoryPassed, practicalPassed)

	return &Result{
		State:    state,
		Eligible: state == StateReadyForPayment,
		Requirements: Requirements{
			TheoryPassed:    theoryPassed,
			PracticalPassed: practicalPassed,
			PaymentVerified: payment != nil && payment.Status == models.PaymentStatusVerified,
			TheoryResult:    theory,
			PracticalResult: practical,
		},
		License:       license,
		Payment:       payment,
		PaymentAmount: s.cfg.FeeAmount,
	}, nil
}

// CurrentPayment returns the newest non-rejected payment for the user, or
// nil. Rejected payments are kept for audit but never block resubmission,
// so the query filters them out and orders by recency.
func (s *EligibilityService) CurrentPayment(userID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.Where("user_id = ? AND status <> ?", userID, models.PaymentStatusRejected).
		Order("created_at desc").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error finding payment: %w", err)
	}
	return &payment, nil
}

func (s *EligibilityService) findLicense(userID uuid.UUID) (*models.License, error) {
	var license models.License
	err := s.db.Where("user_id = ?", userID).First(&license).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error finding license: %w", err)
	}
	return &license, nil
}

func (s *EligibilityService) latestResult(userID uuid.UUID, examType models.ExamType) (*models.ExamResult, error) {
	var result models.ExamResult
	err := s.db.Where("user_id = ? AND exam_type = ?", userID, examType).
		Order("date_taken desc").
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error finding exam result: %w", err)
	}
	return &result, nil
}
