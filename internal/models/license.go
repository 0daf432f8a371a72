package models

import (
	"time"

	"github.com/google/uuid"
)

// LicenseStatus represents the persisted state of a license
type LicenseStatus string

const (
	LicenseStatusValid     LicenseStatus = "Valid"
	LicenseStatusSuspended LicenseStatus = "Suspended"

	// LicenseStatusExpired is derived at read time from the expiry date.
	// It is never written to the status column.
	LicenseStatusExpired LicenseStatus = "Expired"
)

// DefaultMaxPoints is the demerit-point budget assigned at issuance
const DefaultMaxPoints = 12

// License represents an issued driving license. One per user, enforced by
// the unique index on user_id.
type License struct {
	Base
	UserID     uuid.UUID     `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User       User          `gorm:"foreignKey:UserID" json:"-"`
	Number     string        `gorm:"type:varchar(20);uniqueIndex;not null" json:"number"`
	Class      string        `gorm:"type:varchar(10);not null;default:'B'" json:"class"`
	IssueDate  time.Time     `gorm:"not null" json:"issue_date"`
	ExpiryDate time.Time     `gorm:"not null" json:"expiry_date"`
	Status     LicenseStatus `gorm:"type:varchar(20);not null;default:'Valid'" json:"status"`
	Points     int           `gorm:"not null;default:0" json:"points"`
	MaxPoints  int           `gorm:"not null;default:12" json:"max_points"`
	IssuedBy   *uuid.UUID    `gorm:"type:uuid" json:"issued_by,omitempty"`
	PaymentID  *uuid.UUID    `gorm:"type:uuid" json:"payment_id,omitempty"`
	Violations []Violation   `gorm:"foreignKey:LicenseID" json:"violations,omitempty"`
}

// DisplayStatus returns the status with expiry derived against now.
// Suspension takes precedence over expiry.
func (l *License) DisplayStatus(now time.Time) LicenseStatus {
	if l.Status == LicenseStatusSuspended {
		return LicenseStatusSuspended
	}
	if now.After(l.ExpiryDate) {
		return LicenseStatusExpired
	}
	return l.Status
}

// Violation is an append-only demerit record against a license
type Violation struct {
	Base
	LicenseID   uuid.UUID `gorm:"type:uuid;index;not null" json:"license_id"`
	Type        string    `gorm:"type:varchar(100);not null" json:"type"`
	Points      int       `gorm:"not null" json:"points"`
	Description string    `gorm:"type:text" json:"description"`
	Location    string    `gorm:"type:varchar(255)" json:"location"`
	Date        time.Time `gorm:"not null" json:"date"`
	RecordedBy  uuid.UUID `gorm:"type:uuid;not null" json:"recorded_by"`
}

// LicenseCounter holds the per-year issuance sequence. The row is locked and
// incremented inside the issuing transaction so numbers stay unique under
// concurrent verification requests.
type LicenseCounter struct {
	Year int   `gorm:"primaryKey" json:"year"`
	Seq  int64 `gorm:"not null;default:0" json:"seq"`
}
