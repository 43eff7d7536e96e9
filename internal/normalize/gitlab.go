package normalize

import (
	"strconv"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider/gitlab"
)

// GitLabProject maps a project's pipeline stream to a pipeline.
func GitLabProject(p gitlab.Project) *models.Pipeline {
	created := timeOr(parseTime(p.CreatedAt), time.Unix(0, 0).UTC())
	status := models.PipelineStatusActive
	if p.Archived {
		status = models.PipelineStatusInactive
	}

	return &models.Pipeline{
		ID:            IntID(models.ProviderGitLab, p.ID),
		Name:          firstNonEmpty(p.PathWithNamespace, p.NameWithNamespace, p.Name),
		Provider:      models.ProviderGitLab,
		RepositoryURL: p.WebURL,
		Branch:        p.DefaultBranch,
		Status:        status,
		IsActive:      true,
		ExternalRef:   strconv.FormatInt(p.ID, 10),
		CreatedAt:     created,
		UpdatedAt:     timeOr(parseTime(p.LastActivityAt), created),
	}
}

// GitLabJob maps a job to a build of pipelineID. Durations arrive as
// fractional seconds and are truncated to whole milliseconds.
func GitLabJob(pipelineID string, job gitlab.Job) *models.Build {
	canRestart, canCancel := gitLabCapabilities(job.Status)
	created := timeOr(parseTime(job.CreatedAt), time.Unix(0, 0).UTC())
	started := parseTimePtr(job.StartedAt)
	finished := parseTimePtr(job.FinishedAt)

	b := &models.Build{
		ID:          IntID(models.ProviderGitLab, job.ID),
		PipelineID:  pipelineID,
		BuildNumber: strconv.FormatInt(job.ID, 10),
		Status:      GitLabStatus(job.Status),
		Branch:      job.Ref,
		StartedAt:   started,
		FinishedAt:  finished,
		CanRestart:  canRestart,
		CanCancel:   canCancel,
		WebURL:      job.WebURL,
		CreatedAt:   created,
		UpdatedAt:   timeOr(finished, timeOr(started, created)),
	}
	if job.WebURL != "" {
		b.LogsURL = stringPtr(job.WebURL + "/raw")
	}

	if job.Commit != nil {
		b.CommitSHA = job.Commit.ID
		b.CommitMessage = firstNonEmpty(job.Commit.Message, job.Commit.Title)
		b.CommitAuthor = job.Commit.AuthorName
	}
	if b.CommitSHA == "" && job.Pipeline != nil {
		b.CommitSHA = job.Pipeline.SHA
	}
	if b.CommitAuthor == "" && job.User != nil {
		b.CommitAuthor = firstNonEmpty(job.User.Name, job.User.Username)
	}

	if b.Status.Terminal() {
		if job.Duration != nil {
			ms := SecondsToMillis(*job.Duration)
			b.Duration = &ms
		} else {
			b.Duration = between(started, finished)
		}
	}

	return finish(b)
}

// SecondsToMillis converts fractional seconds to truncated milliseconds.
func SecondsToMillis(seconds float64) int64 {
	return int64(seconds * 1000)
}

// GitLabUser maps the authenticated account.
func GitLabUser(u gitlab.User, now time.Time) *models.User {
	return &models.User{
		ID:          IntID(models.ProviderGitLab, u.ID),
		Provider:    models.ProviderGitLab,
		Username:    u.Username,
		DisplayName: firstNonEmpty(u.Name, u.Username),
		Email:       firstNonEmpty(u.Email, u.PublicEmail),
		AvatarURL:   u.AvatarURL,
		ProfileURL:  u.WebURL,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
