package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devasol/dlms-backend/internal/models"
	"github.com/devasol/dlms-backend/internal/services/exam"
)

// ExamHandler handles exam result submission and lookup
type ExamHandler struct {
	Exams *exam.ExamService
}

// NewExamHandler creates a new exam handler
func NewExamHandler(exams *exam.ExamService) *ExamHandler {
	return &ExamHandler{Exams: exams}
}

// SubmitResult records an exam result (examiner). Theory results derive
// pass/fail from the score; practical results take the examiner's verdict.
func (h *ExamHandler) SubmitResult(c *gin.Context) {
	var request struct {
		UserID   string          `json:"user_id" binding:"required"`
		ExamType models.ExamType `json:"exam_type" binding:"required"`
		Score    int             `json:"score"`
		Passed   *bool           `json:"passed"`
		Date     string          `json:"date"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	userID, err := uuid.Parse(request.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID"})
		return
	}

	dateTaken := time.Now()
	if request.Date != "" {
		parsed, err := time.Parse("2006-01-02", request.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid date, expected YYYY-MM-DD"})
			return
		}
		dateTaken = parsed
	}

	examinerID := c.MustGet("user_id").(uuid.UUID)

	var result *models.ExamResult
	switch request.ExamType {
	case models.ExamTypeTheory:
		result, err = h.Exams.RecordTheoryResult(userID, request.Score, dateTaken)
	case models.ExamTypePractical:
		if request.Passed == nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Practical results require a pass/fail verdict"})
			return
		}
		result, err = h.Exams.RecordPracticalResult(userID, examinerID, *request.Passed, request.Score, dateTaken)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Exam type must be theory or practical"})
		return
	}

	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "result": result})
}

// ResultsByUser returns a user's exam history
func (h *ExamHandler) ResultsByUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID"})
		return
	}

	results, err := h.Exams.ResultsForUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}
