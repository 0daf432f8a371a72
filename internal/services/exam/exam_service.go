package exam

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devasol/dlms-backend/internal/apperrors"
	"github.com/devasol/dlms-backend/internal/models"
)

// ExamService records and looks up exam results
type ExamService struct {
	db *gorm.DB
}

// NewExamService creates a new exam service
func NewExamService(db *gorm.DB) *ExamService {
	return &ExamService{db: db}
}

// RecordTheoryResult stores a theory exam score. Pass/fail is derived from
// the fixed pass mark.
func (s *ExamService) RecordTheoryResult(userID uuid.UUID, score int, dateTaken time.Time) (*models.ExamResult, error) {
	if score < 0 || score > 100 {
		return nil, apperrors.NewValidationError("score must be between 0 and 100")
	}

	if err := s.ensureUser(userID); err != nil {
		return nil, err
	}

	result := models.ExamResult{
		UserID:    userID,
		ExamType:  models.ExamTypeTheory,
		Score:     score,
		Passed:    score >= models.TheoryPassScore,
		DateTaken: dateTaken,
	}

	if err := s.db.Create(&result).Error; err != nil {
		return nil, fmt.Errorf("error creating theory result: %w", err)
	}

	return &result, nil
}

// RecordPracticalResult stores an examiner-assigned practical exam outcome
func (s *ExamService) RecordPracticalResult(userID, examinerID uuid.UUID, passed bool, score int, dateTaken time.Time) (*models.ExamResult, error) {
	if err := s.ensureUser(userID); err != nil {
		return nil, err
	}

	result := models.ExamResult{
		UserID:     userID,
		ExamType:   models.ExamTypePractical,
		Score:      score,
		Passed:     passed,
		DateTaken:  dateTaken,
		ExaminerID: &examinerID,
	}

	if err := s.db.Create(&result).Error; err != nil {
		return nil, fmt.Errorf("error creating practical result: %w", err)
	}

	return &result, nil
}

// LatestResult returns the most recent result of the given type, or nil when
// the user has not taken that exam
func (s *ExamService) LatestResult(userID uuid.UUID, examType models.ExamType) (*models.ExamResult, error) {
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

// ResultsForUser returns all exam results for a user, newest first
func (s *ExamService) ResultsForUser(userID uuid.UUID) ([]models.ExamResult, error) {
	var results []models.ExamResult
	if err := s.db.Where("user_id = ?", userID).Order("date_taken desc").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("error finding exam results: %w", err)
	}
	return results, nil
}

func (s *ExamService) ensureUser(userID uuid.UUID) error {
	var user models.User
	if err := s.db.Select("id").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("error finding user: %w", err)
	}
	return nil
}
