package model

import "time"

// PersonalAccessToken backs an issued bearer token; deleting the row revokes it.
type PersonalAccessToken struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	TokenID    string     `gorm:"size:36;not null;uniqueIndex" json:"-"`
	Name       string     `gorm:"size:100;not null" json:"name"`
	ExpiresAt  time.Time  `gorm:"not null;index" json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (PersonalAccessToken) TableName() string {
	return "personal_access_tokens"
}
