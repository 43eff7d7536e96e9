package models

import (
	"time"

	"gorm.io/datatypes"
)

// Target is a monitored repository, project or job set.
//
// Locator is "owner/repo" for GitHub, the numeric id or full path of a GitLab
// project, and a folder prefix (possibly empty) for Jenkins. Include is a
// doublestar pattern matched against workflow paths or Jenkins job names.
type Target struct {
	ID         string            `gorm:"type:uuid;primaryKey" json:"id" yaml:"-" toml:"-"`
	Provider   Provider          `gorm:"type:text;index;not null" json:"provider" yaml:"provider" toml:"provider"`
	Locator    string            `gorm:"not null" json:"locator" yaml:"locator" toml:"locator"`
	Branch     string            `json:"branch,omitempty" yaml:"branch,omitempty" toml:"branch"`
	Include    string            `json:"include,omitempty" yaml:"include,omitempty" toml:"include"`
	Parameters datatypes.JSONMap `gorm:"type:json" json:"parameters,omitempty" yaml:"parameters,omitempty" toml:"parameters"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at" yaml:"-" toml:"-"`
	UpdatedAt  time.Time         `gorm:"not null" json:"updated_at" yaml:"-" toml:"-"`
}

type Targets []*Target
