package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider/jenkins"
)

// JenkinsJob maps a job to a pipeline. The last-run status is read from the
// job color until a build record is summarized onto it.
func JenkinsJob(job jenkins.Job) *models.Pipeline {
	name := firstNonEmpty(job.FullName, job.Name)
	status := models.PipelineStatusActive
	if strings.EqualFold(job.Color, "disabled") || (job.Buildable != nil && !*job.Buildable) {
		status = models.PipelineStatusInactive
	}

	p := &models.Pipeline{
		ID:            ID(models.ProviderJenkins, name),
		Name:          firstNonEmpty(job.DisplayName, job.Name, name),
		Provider:      models.ProviderJenkins,
		RepositoryURL: job.URL,
		Status:        status,
		IsActive:      true,
		ExternalRef:   name,
		CreatedAt:     time.Unix(0, 0).UTC(),
		UpdatedAt:     time.Unix(0, 0).UTC(),
	}

	if job.Color != "" {
		s := JenkinsColor(job.Color)
		p.LastRunStatus = &s
	}
	if job.LastBuild != nil {
		p.LastRunID = JenkinsBuildID(name, job.LastBuild.Number)
		if at := millis(job.LastBuild.Timestamp); at != nil {
			p.LastRunTimestamp = at
			p.UpdatedAt = *at
		}
	}

	return p
}

// JenkinsBuildRef maps an abbreviated build from a job listing.
func JenkinsBuildRef(pipelineID, job string, ref jenkins.BuildRef) *models.Build {
	return jenkinsBuild(pipelineID, job, ref.Number, ref.URL, ref.Result, ref.Building, ref.Timestamp, ref.Duration)
}

// JenkinsBuild maps a full build record including its SCM details.
func JenkinsBuild(pipelineID, job string, build jenkins.Build) *models.Build {
	b := jenkinsBuild(pipelineID, job, build.Number, build.URL, build.Result, build.Building, build.Timestamp, build.Duration)

	for _, a := range build.Actions {
		if a.LastBuiltRevision == nil {
			continue
		}
		b.CommitSHA = a.LastBuiltRevision.SHA1
		if len(a.LastBuiltRevision.Branch) > 0 {
			b.Branch = trimRemote(a.LastBuiltRevision.Branch[0].Name)
		}
		break
	}

	for _, item := range changeItems(build) {
		if b.CommitSHA == "" {
			b.CommitSHA = item.CommitID
		}
		b.CommitMessage = firstNonEmpty(strings.TrimSpace(item.Comment), item.Msg)
		if item.Author != nil {
			b.CommitAuthor = item.Author.FullName
		}
		b.CommitAuthor = firstNonEmpty(b.CommitAuthor, item.AuthorEmail)
	}

	if b.CommitAuthor == "" {
		for _, a := range build.Actions {
			for _, c := range a.Causes {
				if c.UserName != "" {
					b.CommitAuthor = c.UserName
				}
			}
		}
	}

	return b
}

func jenkinsBuild(pipelineID, job string, number int, url string, result *string, building bool, timestamp, duration int64) *models.Build {
	status := JenkinsResult(result, building)
	started := millis(timestamp)
	created := timeOr(started, time.Unix(0, 0).UTC())

	b := &models.Build{
		ID:          JenkinsBuildID(job, number),
		PipelineID:  pipelineID,
		BuildNumber: strconv.Itoa(number),
		Status:      status,
		StartedAt:   started,
		CanRestart:  !building,
		WebURL:      url,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	if url != "" {
		b.LogsURL = stringPtr(strings.TrimRight(url, "/") + "/consoleText")
	}

	if status.Terminal() && started != nil {
		finished := started.Add(time.Duration(duration) * time.Millisecond)
		b.FinishedAt = &finished
		b.Duration = &duration
		b.UpdatedAt = finished
	}

	return finish(b)
}

// changeItems returns the commits of a build, oldest first; the last one is
// the head commit.
func changeItems(build jenkins.Build) []jenkins.ChangeSetItem {
	var items []jenkins.ChangeSetItem
	if build.ChangeSet != nil {
		items = append(items, build.ChangeSet.Items...)
	}
	for _, cs := range build.ChangeSets {
		items = append(items, cs.Items...)
	}
	return items
}

func trimRemote(branch string) string {
	branch = strings.TrimPrefix(branch, "refs/remotes/")
	return strings.TrimPrefix(branch, "origin/")
}

// JenkinsUser maps the authenticated account of a server.
func JenkinsUser(serverURL string, u jenkins.CurrentUser, now time.Time) *models.User {
	return &models.User{
		ID:          ID(models.ProviderJenkins, u.ID),
		Provider:    models.ProviderJenkins,
		Username:    u.ID,
		DisplayName: firstNonEmpty(u.FullName, u.ID),
		ProfileURL:  firstNonEmpty(u.AbsoluteURL, serverURL),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
