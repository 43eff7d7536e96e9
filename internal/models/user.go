package models

import "time"

// User is the cached identity of the authenticated account for a provider.
type User struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Provider    Provider  `gorm:"type:text;index;not null" json:"provider"`
	Username    string    `gorm:"not null" json:"username"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	ProfileURL  string    `json:"profile_url,omitempty"`
	IsActive    bool      `gorm:"index;not null" json:"is_active"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}
