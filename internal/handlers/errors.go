package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/devasol/dlms-backend/internal/apperrors"
)

// respondError translates service errors to HTTP responses. Unexpected
// errors are logged and sanitized to a generic 500.
func respondError(c *gin.Context, err error) {
	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": validationErr.Message})
		return
	}

	var conflictErr *apperrors.ConflictError
	if errors.As(err, &conflictErr) {
		body := gin.H{"success": false, "message": conflictErr.Message}
		if conflictErr.Record != nil {
			// Hand back the conflicting record so the frontend can show
			// current status instead of a dead-end error.
			body["record"] = conflictErr.Record
		}
		c.JSON(http.StatusConflict, body)
		return
	}

	if apperrors.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
		return
	}

	if errors.Is(err, apperrors.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}

	if errors.Is(err, apperrors.ErrPermissionDenied) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied"})
		return
	}

	log.Error().Err(err).Str("path", c.FullPath()).Msg("internal error")
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
}
