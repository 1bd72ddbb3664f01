package model

import (
	"time"
)

// PasswordResetToken is issued after a successful OTP verification. Token holds
// the SHA-256 digest; the raw value is only returned to the client once.
type PasswordResetToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Token     string    `gorm:"size:64;not null;index" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}
