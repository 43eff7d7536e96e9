package normalize

import (
	"strings"

	"github.com/caesium-cloud/cimon/internal/models"
)

// GitHubStatus maps a workflow run's status and conclusion pair.
func GitHubStatus(status string, conclusion *string) models.BuildStatus {
	switch status {
	case "completed":
		if conclusion == nil {
			return models.BuildStatusUnknown
		}
		switch *conclusion {
		case "success":
			return models.BuildStatusSuccess
		case "failure":
			return models.BuildStatusFailure
		case "cancelled":
			return models.BuildStatusCancelled
		case "skipped":
			return models.BuildStatusSkipped
		default:
			return models.BuildStatusUnknown
		}
	case "in_progress":
		return models.BuildStatusRunning
	case "queued":
		return models.BuildStatusPending
	default:
		return models.BuildStatusUnknown
	}
}

// GitLabStatus maps a pipeline or job status, ignoring case.
func GitLabStatus(status string) models.BuildStatus {
	switch strings.ToLower(status) {
	case "success":
		return models.BuildStatusSuccess
	case "failed":
		return models.BuildStatusFailure
	case "running":
		return models.BuildStatusRunning
	case "pending":
		return models.BuildStatusPending
	case "canceled", "cancelled":
		return models.BuildStatusCancelled
	case "skipped":
		return models.BuildStatusSkipped
	default:
		return models.BuildStatusUnknown
	}
}

// JenkinsColor maps the ball color of a job to the status of its last run.
func JenkinsColor(color string) models.BuildStatus {
	switch strings.ToLower(color) {
	case "blue", "yellow":
		return models.BuildStatusSuccess
	case "red":
		return models.BuildStatusFailure
	case "grey":
		return models.BuildStatusPending
	case "disabled", "aborted":
		return models.BuildStatusCancelled
	default:
		return models.BuildStatusUnknown
	}
}

// JenkinsResult maps the result of a single build. A build that is still
// running has no result yet.
func JenkinsResult(result *string, building bool) models.BuildStatus {
	if building {
		return models.BuildStatusRunning
	}
	if result == nil {
		return models.BuildStatusUnknown
	}
	switch strings.ToUpper(*result) {
	case "SUCCESS", "UNSTABLE":
		return models.BuildStatusSuccess
	case "FAILURE":
		return models.BuildStatusFailure
	case "ABORTED":
		return models.BuildStatusCancelled
	case "NOT_BUILT":
		return models.BuildStatusSkipped
	default:
		return models.BuildStatusUnknown
	}
}

func gitHubCapabilities(status string) (canRestart, canCancel bool) {
	return status == "completed", status == "in_progress"
}

func gitLabCapabilities(status string) (canRestart, canCancel bool) {
	switch strings.ToLower(status) {
	case "failed", "canceled", "cancelled", "success":
		return true, false
	case "running", "pending":
		return false, true
	}
	return false, false
}
