package models

import "time"

// User represents the user model in the database
type User struct {
	Base
	AuthSubject         string      `gorm:"size:128;uniqueIndex;not null" json:"auth_subject"`
	Email               string      `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Username            string      `gorm:"size:100" json:"username"`
	Password            string      `json:"-"`
	RiskProfile         RiskProfile `gorm:"size:16;not null;default:balanced" json:"risk_profile"`
	IsActive            bool        `gorm:"default:true" json:"is_active"`
	RefreshTokenHash    string      `gorm:"size:64" json:"-"`
	FailedLoginAttempts int         `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time  `json:"-"`
	LastLoginAt         *time.Time  `json:"last_login_at,omitempty"`
}
