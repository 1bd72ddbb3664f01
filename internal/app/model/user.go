package model

import "time"

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Name         string         `gorm:"size:255;not null" json:"name"`
	Email        string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	OTPCode      *string        `gorm:"column:otp_code;size:6;index" json:"-"` // set together with OTPExpiresAt
	OTPExpiresAt *time.Time     `gorm:"column:otp_expires_at" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	Roles []Role `gorm:"many2many:user_roles;" json:"roles,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// HasPendingOTP reports whether a reset code is currently stored for the user.
func (u *User) HasPendingOTP() bool {
	return u.OTPCode != nil && u.OTPExpiresAt != nil
}

// RoleNames returns the names of the loaded Roles association.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}
