package normalize

import "github.com/caesium-cloud/cimon/internal/models"

// Summarize copies the last-run fields of latest onto p. A nil build leaves
// p untouched. UpdatedAt only moves forward so re-summarizing is stable.
func Summarize(p *models.Pipeline, latest *models.Build) *models.Pipeline {
	if p == nil || latest == nil {
		return p
	}

	status := latest.Status
	p.LastRunID = latest.ID
	p.LastRunStatus = &status
	p.LastRunDuration = latest.Duration
	ts := latest.CreatedAt
	if latest.StartedAt != nil {
		ts = *latest.StartedAt
	}
	p.LastRunTimestamp = &ts
	p.LastCommitMessage = latest.CommitMessage
	p.LastCommitAuthor = latest.CommitAuthor
	if p.Branch == "" {
		p.Branch = latest.Branch
	}
	if latest.UpdatedAt.After(p.UpdatedAt) {
		p.UpdatedAt = latest.UpdatedAt
	}
	return p
}

// Latest returns the most recently created build, preferring the first in
// provider order on ties.
func Latest(builds models.Builds) *models.Build {
	var latest *models.Build
	for _, b := range builds {
		if b == nil {
			continue
		}
		if latest == nil || b.CreatedAt.After(latest.CreatedAt) {
			latest = b
		}
	}
	return latest
}
