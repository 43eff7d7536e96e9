package models

import "time"

const (
	DefaultPollingInterval = 5
	MinPollingInterval     = 1
	MaxPollingInterval     = 60
)

// Preferences holds the single-user notification and polling settings.
type Preferences struct {
	ID int `gorm:"primaryKey" json:"-"`
	// PollingInterval is in minutes.
	PollingInterval int       `gorm:"not null" json:"polling_interval"`
	NotifyOnSuccess bool      `gorm:"not null" json:"notify_on_success"`
	NotifyOnFailure bool      `gorm:"not null" json:"notify_on_failure"`
	NotifyOnStart   bool      `gorm:"not null" json:"notify_on_start"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultPreferences returns the settings used before the user changes any.
func DefaultPreferences() *Preferences {
	return &Preferences{
		ID:              1,
		PollingInterval: DefaultPollingInterval,
		NotifyOnFailure: true,
	}
}

// ClampPollingInterval bounds minutes to the supported range.
func ClampPollingInterval(minutes int) int {
	if minutes < MinPollingInterval {
		return MinPollingInterval
	}
	if minutes > MaxPollingInterval {
		return MaxPollingInterval
	}
	return minutes
}
