package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider/github"
)

// GitHubWorkflow maps a workflow of owner/repo to a pipeline.
func GitHubWorkflow(owner, repo string, wf github.Workflow) *models.Pipeline {
	created := timeOr(parseTime(wf.CreatedAt), time.Unix(0, 0).UTC())
	status := models.PipelineStatusActive
	if wf.State != "" && wf.State != "active" {
		status = models.PipelineStatusInactive
	}

	return &models.Pipeline{
		ID:            IntID(models.ProviderGitHub, wf.ID),
		Name:          firstNonEmpty(wf.Name, wf.Path),
		Provider:      models.ProviderGitHub,
		RepositoryURL: repositoryURL(wf.HTMLURL, owner, repo),
		Status:        status,
		IsActive:      true,
		ExternalRef:   owner + "/" + repo,
		CreatedAt:     created,
		UpdatedAt:     timeOr(parseTime(wf.UpdatedAt), created),
	}
}

// repositoryURL trims a workflow html url down to the repository root.
func repositoryURL(htmlURL, owner, repo string) string {
	if i := strings.Index(htmlURL, "/blob/"); i > 0 {
		return htmlURL[:i]
	}
	if i := strings.Index(htmlURL, "/actions/"); i > 0 {
		return htmlURL[:i]
	}
	if owner == "" || repo == "" {
		return htmlURL
	}
	return "https://github.com/" + owner + "/" + repo
}

// GitHubRun maps a workflow run to a build of pipelineID.
func GitHubRun(pipelineID string, run github.Run) *models.Build {
	canRestart, canCancel := gitHubCapabilities(run.Status)
	created := timeOr(parseTime(run.CreatedAt), time.Unix(0, 0).UTC())
	updated := timeOr(parseTime(run.UpdatedAt), created)

	started := parseTimePtr(run.RunStartedAt)
	if started == nil {
		started = parseTime(run.CreatedAt)
	}

	b := &models.Build{
		ID:          IntID(models.ProviderGitHub, run.ID),
		PipelineID:  pipelineID,
		BuildNumber: strconv.FormatInt(run.RunNumber, 10),
		Status:      GitHubStatus(run.Status, run.Conclusion),
		Branch:      run.HeadBranch,
		CommitSHA:   run.HeadSHA,
		StartedAt:   started,
		CanRestart:  canRestart,
		CanCancel:   canCancel,
		WebURL:      run.HTMLURL,
		LogsURL:     stringPtr(run.LogsURL),
		CreatedAt:   created,
		UpdatedAt:   updated,
	}

	if run.HeadCommit != nil {
		b.CommitMessage = run.HeadCommit.Message
		if run.HeadCommit.Author != nil {
			b.CommitAuthor = run.HeadCommit.Author.Name
		}
	}
	if b.CommitAuthor == "" && run.Actor != nil {
		b.CommitAuthor = run.Actor.Login
	}

	if b.Status.Terminal() {
		finished := updated
		b.FinishedAt = &finished
		b.Duration = between(b.StartedAt, b.FinishedAt)
	}

	return finish(b)
}

// GitHubUser maps the authenticated account.
func GitHubUser(u github.User, now time.Time) *models.User {
	return &models.User{
		ID:          IntID(models.ProviderGitHub, u.ID),
		Provider:    models.ProviderGitHub,
		Username:    u.Login,
		DisplayName: firstNonEmpty(u.Name, u.Login),
		Email:       u.Email,
		AvatarURL:   u.AvatarURL,
		ProfileURL:  u.HTMLURL,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
