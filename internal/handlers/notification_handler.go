package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devasol/dlms-backend/internal/services/notification"
)

// NotificationHandler handles in-app notification requests
type NotificationHandler struct {
	Notifications *notification.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications *notification.NotificationService) *NotificationHandler {
	return &NotificationHandler{Notifications: notifications}
}

// List returns the authenticated user's notifications
func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	notifications, err := h.Notifications.ListForUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "notifications": notifications})
}

// MarkRead marks one of the authenticated user's notifications as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid notification ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)

	if err := h.Notifications.MarkRead(notificationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Notification not found"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
