package models

import "time"

// PipelineStatus is the monitoring state of a pipeline.
type PipelineStatus string

const (
	PipelineStatusActive   PipelineStatus = "ACTIVE"
	PipelineStatusInactive PipelineStatus = "INACTIVE"
	PipelineStatusError    PipelineStatus = "ERROR"
)

// Pipeline is a monitored GitHub workflow, GitLab project pipeline stream
// or Jenkins job.
type Pipeline struct {
	ID            string         `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"not null" json:"name"`
	Provider      Provider       `gorm:"type:text;index;not null" json:"provider"`
	RepositoryURL string         `json:"repository_url"`
	Branch        string         `json:"branch"`
	Status        PipelineStatus `gorm:"type:text;not null" json:"status"`
	IsActive      bool           `gorm:"index;not null" json:"is_active"`
	// ExternalRef locates the pipeline upstream: owner/repo, project id or job name.
	ExternalRef string `gorm:"type:text" json:"external_ref"`

	LastRunID         string       `json:"last_run_id,omitempty"`
	LastRunStatus     *BuildStatus `gorm:"type:text" json:"last_run_status,omitempty"`
	LastRunDuration   *int64       `json:"last_run_duration,omitempty"`
	LastRunTimestamp  *time.Time   `json:"last_run_timestamp,omitempty"`
	LastCommitMessage string       `json:"last_commit_message,omitempty"`
	LastCommitAuthor  string       `json:"last_commit_author,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime:false;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false;index;not null" json:"updated_at"`
	Builds    []Build   `gorm:"foreignKey:PipelineID;constraint:OnDelete:CASCADE" json:"builds,omitempty"`
}

type Pipelines []*Pipeline
