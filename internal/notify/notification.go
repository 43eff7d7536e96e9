// Package notify turns build status changes into user notifications.
package notify

import (
	"fmt"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/google/uuid"
)

// Kind classifies a notification.
type Kind string

const (
	KindStarted   Kind = "started"
	KindSucceeded Kind = "succeeded"
	KindFailed    Kind = "failed"
)

// Notification is what transports deliver.
type Notification struct {
	ID          uuid.UUID          `json:"id"`
	Kind        Kind               `json:"kind"`
	Provider    models.Provider    `json:"provider"`
	PipelineID  string             `json:"pipeline_id"`
	Pipeline    string             `json:"pipeline"`
	BuildID     string             `json:"build_id"`
	BuildNumber string             `json:"build_number,omitempty"`
	Branch      string             `json:"branch,omitempty"`
	Status      models.BuildStatus `json:"status"`
	Previous    models.BuildStatus `json:"previous,omitempty"`
	Title       string             `json:"title"`
	Message     string             `json:"message"`
	WebURL      string             `json:"web_url,omitempty"`
	Time        time.Time          `json:"time"`
}

// Decide maps a status change to a notification kind according to prefs.
// It reports false when the change should stay silent.
func Decide(prefs *models.Preferences, status models.BuildStatus) (Kind, bool) {
	if prefs == nil {
		prefs = models.DefaultPreferences()
	}

	switch status {
	case models.BuildStatusSuccess:
		return KindSucceeded, prefs.NotifyOnSuccess
	case models.BuildStatusFailure:
		return KindFailed, prefs.NotifyOnFailure
	case models.BuildStatusRunning:
		return KindStarted, prefs.NotifyOnStart
	}
	return "", false
}

func newNotification(kind Kind, pipeline string, b *models.Build, previous models.BuildStatus, p models.Provider, now time.Time) Notification {
	if pipeline == "" {
		pipeline = b.PipelineID
	}

	number := b.BuildNumber
	if number == "" {
		number = models.NativeID(b.ID)
	}

	n := Notification{
		ID:          uuid.New(),
		Kind:        kind,
		Provider:    p,
		PipelineID:  b.PipelineID,
		Pipeline:    pipeline,
		BuildID:     b.ID,
		BuildNumber: b.BuildNumber,
		Branch:      b.Branch,
		Status:      b.Status,
		Previous:    previous,
		WebURL:      b.WebURL,
		Time:        now,
	}

	switch kind {
	case KindStarted:
		n.Title = fmt.Sprintf("%s started", pipeline)
	case KindSucceeded:
		n.Title = fmt.Sprintf("%s passed", pipeline)
	case KindFailed:
		n.Title = fmt.Sprintf("%s failed", pipeline)
	}

	n.Message = fmt.Sprintf("Build #%s", number)
	if b.Branch != "" {
		n.Message += " on " + b.Branch
	}
	if b.CommitMessage != "" {
		n.Message += ": " + b.CommitMessage
	}

	return n
}
