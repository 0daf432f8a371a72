package models

import "time"

// Role represents a user's role in the system
type Role string

const (
	RoleCitizen       Role = "citizen"
	RoleAdmin         Role = "admin"
	RoleExaminer      Role = "examiner"
	RoleTrafficPolice Role = "traffic_police"
)

// User represents an account in the system
type User struct {
	Base
	FullName     string     `gorm:"type:varchar(255);not null" json:"full_name"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role       `gorm:"type:varchar(20);not null;default:'citizen'" json:"role"`
	PhoneNumber  *string    `gorm:"type:varchar(20)" json:"phone_number,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}
