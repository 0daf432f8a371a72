package models

import (
	"time"

	"github.com/google/uuid"
)

// RenewalReason is why the citizen is asking for a new license document
type RenewalReason string

const (
	RenewalReasonExpiring RenewalReason = "expiring"
	RenewalReasonExpired  RenewalReason = "expired"
	RenewalReasonDamaged  RenewalReason = "damaged"
	RenewalReasonLost     RenewalReason = "lost"
)

// RenewalStatus represents the review state of a renewal request
type RenewalStatus string

const (
	RenewalStatusPending     RenewalStatus = "pending"
	RenewalStatusUnderReview RenewalStatus = "under_review"
	RenewalStatusApproved    RenewalStatus = "approved"
	RenewalStatusRejected    RenewalStatus = "rejected"
)

// LicenseRenewal tracks a renewal/replacement request. At most one request
// per user may be open (pending or under_review) at a time. Approval mutates
// the existing License in place rather than creating a new one.
type LicenseRenewal struct {
	Base
	UserID           uuid.UUID     `gorm:"type:uuid;index;not null" json:"user_id"`
	User             User          `gorm:"foreignKey:UserID" json:"-"`
	LicenseID        uuid.UUID     `gorm:"type:uuid;not null" json:"license_id"`
	DocumentPath     string        `gorm:"type:varchar(255);not null" json:"document_path"`
	Reason           RenewalReason `gorm:"type:varchar(20);not null" json:"reason"`
	Status           RenewalStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	AdminNotes       string        `gorm:"type:text" json:"admin_notes,omitempty"`
	ReviewedBy       *uuid.UUID    `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time    `json:"reviewed_at,omitempty"`
	NewLicenseNumber string        `gorm:"type:varchar(20)" json:"new_license_number,omitempty"`
	NewLicenseIssued bool          `gorm:"not null;default:false" json:"new_license_issued"`
}

// Open reports whether the request still blocks a new submission
func (r *LicenseRenewal) Open() bool {
	return r.Status == RenewalStatusPending || r.Status == RenewalStatusUnderReview
}
