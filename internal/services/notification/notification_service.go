package notification

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devasol/dlms-backend/internal/models"
)

// NotificationService persists in-app notifications
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Notify creates a notification for a user
func (s *NotificationService) Notify(userID uuid.UUID, notifType models.NotificationType, title, message string) error {
	notification := models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
	}

	if err := s.db.Create(&notification).Error; err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}

	return nil
}

// ListForUser returns a user's notifications, newest first
func (s *NotificationService) ListForUser(userID uuid.UUID) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := s.db.Where("user_id = ?", userID).Order("created_at desc").Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("error finding notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks a notification as read. The user id guards against marking
// another user's notification.
func (s *NotificationService) MarkRead(id, userID uuid.UUID) error {
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return fmt.Errorf("error marking notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
