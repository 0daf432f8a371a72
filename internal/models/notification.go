package models

import "github.com/google/uuid"

// NotificationType categorizes notifications for the frontend
type NotificationType string

const (
	NotificationTypeViolation      NotificationType = "violation"
	NotificationTypeSuspension     NotificationType = "suspension"
	NotificationTypePayment        NotificationType = "payment"
	NotificationTypeLicense        NotificationType = "license"
	NotificationTypeRenewal        NotificationType = "renewal"
	NotificationTypeExpiryReminder NotificationType = "expiry_reminder"
)

// Notification is a persisted in-app message for a user
type Notification struct {
	Base
	UserID  uuid.UUID        `gorm:"type:uuid;index;not null" json:"user_id"`
	Type    NotificationType `gorm:"type:varchar(30);not null" json:"type"`
	Title   string           `gorm:"type:varchar(255);not null" json:"title"`
	Message string           `gorm:"type:text;not null" json:"message"`
	Read    bool             `gorm:"not null;default:false" json:"read"`
}
