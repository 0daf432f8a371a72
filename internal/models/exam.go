package models

import (
	"time"

	"github.com/google/uuid"
)

// ExamType distinguishes the two exams a candidate must pass
type ExamType string

const (
	ExamTypeTheory    ExamType = "theory"
	ExamTypePractical ExamType = "practical"
)

// TheoryPassScore is the minimum percentage score to pass the theory exam
const TheoryPassScore = 74

// ExamResult records the outcome of a single exam attempt. Results are
// immutable once written; corrections go through admin tooling, not here.
type ExamResult struct {
	Base
	UserID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	User       User       `gorm:"foreignKey:UserID" json:"-"`
	ExamType   ExamType   `gorm:"type:varchar(20);not null" json:"exam_type"`
	Score      int        `json:"score"`
	Passed     bool       `gorm:"not null" json:"passed"`
	DateTaken  time.Time  `gorm:"not null" json:"date_taken"`
	ExaminerID *uuid.UUID `gorm:"type:uuid" json:"examiner_id,omitempty"`
}
