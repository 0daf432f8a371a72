package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the review state of a license fee payment
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusVerified PaymentStatus = "verified"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// Payment represents a license fee payment submitted for admin review.
// Rejected payments are kept for audit; eligibility treats them as absent.
type Payment struct {
	Base
	UserID        uuid.UUID     `gorm:"type:uuid;index;not null" json:"user_id"`
	User          User          `gorm:"foreignKey:UserID" json:"-"`
	Amount        float64       `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency      string        `gorm:"type:varchar(3);not null" json:"currency"`
	Method        string        `gorm:"type:varchar(50);not null" json:"method"`
	TransactionID string        `gorm:"type:varchar(100)" json:"transaction_id"`
	PaymentDate   time.Time     `gorm:"not null" json:"payment_date"`
	ReceiptPath   string        `gorm:"type:varchar(255);not null" json:"receipt_path"`
	Status        PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	AdminNotes    string        `gorm:"type:text" json:"admin_notes,omitempty"`
	ReviewedAt    *time.Time    `json:"reviewed_at,omitempty"`
	ReviewedBy    *uuid.UUID    `gorm:"type:uuid" json:"reviewed_by,omitempty"`
}
