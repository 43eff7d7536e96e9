// Package connector implements provider.Client for each CI backend by
// pairing its REST adapter with the normalization layer.
package connector

import (
	"sync"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider"
)

// DefaultBuildsPerPipeline bounds how many recent builds are kept per
// pipeline on each sync.
const DefaultBuildsPerPipeline = 20

// dispatchSkew tolerates clock drift when matching a dispatched run.
const dispatchSkew = 30 * time.Second

// Options tune every connector.
type Options struct {
	Concurrency       int
	BuildsPerPipeline int
	Now               func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Concurrency < 1 {
		o.Concurrency = 4
	}
	if o.BuildsPerPipeline < 1 {
		o.BuildsPerPipeline = DefaultBuildsPerPipeline
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// collector gathers pipelines and builds from concurrent fetches.
type collector struct {
	mu   sync.Mutex
	snap provider.Snapshot
}

func (c *collector) add(p *models.Pipeline, builds models.Builds) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Pipelines = append(c.snap.Pipelines, p)
	c.snap.Builds = append(c.snap.Builds, builds...)
}

func (c *collector) snapshot() *provider.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.snap
	return &out
}

// pending is the transient record returned when a run was accepted but is
// not observable yet. It carries no id and is never cached.
func pending(pipeline *models.Pipeline, branch string, now time.Time) *models.Build {
	return &models.Build{
		PipelineID: pipeline.ID,
		Status:     models.BuildStatusPending,
		Branch:     branch,
		WebURL:     pipeline.RepositoryURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func branchOr(opts provider.TriggerOptions, pipeline *models.Pipeline) string {
	if opts.Branch != "" {
		return opts.Branch
	}
	if pipeline.Branch != "" {
		return pipeline.Branch
	}
	return "main"
}
