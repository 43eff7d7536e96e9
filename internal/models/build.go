package models

import "time"

// BuildStatus is the unified execution state of a build.
type BuildStatus string

const (
	BuildStatusPending   BuildStatus = "PENDING"
	BuildStatusRunning   BuildStatus = "RUNNING"
	BuildStatusSuccess   BuildStatus = "SUCCESS"
	BuildStatusFailure   BuildStatus = "FAILURE"
	BuildStatusCancelled BuildStatus = "CANCELLED"
	BuildStatusSkipped   BuildStatus = "SKIPPED"
	BuildStatusUnknown   BuildStatus = "UNKNOWN"
)

// Terminal reports whether the build has finished.
func (s BuildStatus) Terminal() bool {
	switch s {
	case BuildStatusSuccess, BuildStatusFailure, BuildStatusCancelled, BuildStatusSkipped:
		return true
	}
	return false
}

// Build is one execution of a Pipeline.
type Build struct {
	ID            string      `gorm:"primaryKey" json:"id"`
	PipelineID    string      `gorm:"index;not null" json:"pipeline_id"`
	BuildNumber   string      `json:"build_number"`
	Status        BuildStatus `gorm:"type:text;index;not null" json:"status"`
	Branch        string      `json:"branch"`
	CommitSHA     string      `json:"commit_sha"`
	CommitMessage string      `json:"commit_message"`
	CommitAuthor  string      `json:"commit_author"`
	StartedAt     *time.Time  `json:"started_at,omitempty"`
	FinishedAt    *time.Time  `json:"finished_at,omitempty"`
	// Duration is in milliseconds and only set once FinishedAt is.
	Duration   *int64    `json:"duration,omitempty"`
	CanRestart bool      `gorm:"not null" json:"can_restart"`
	CanCancel  bool      `gorm:"not null" json:"can_cancel"`
	WebURL     string    `json:"web_url"`
	LogsURL    *string   `json:"logs_url,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime:false;index;not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime:false;not null" json:"updated_at"`
}

type Builds []*Build
