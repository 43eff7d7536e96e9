package connector

import (
	"context"
	"fmt"
	"strconv"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/normalize"
	"github.com/caesium-cloud/cimon/internal/provider"
	"github.com/caesium-cloud/cimon/internal/provider/gitlab"
	"github.com/caesium-cloud/cimon/internal/target"
	"github.com/caesium-cloud/cimon/internal/worker"
)

// pipelinesPerProject bounds how many recent GitLab pipelines are expanded
// into jobs on each sync.
const pipelinesPerProject = 5

// GitLab serves the pipeline stream of each targeted project. Jobs are the
// builds.
type GitLab struct {
	serverURL string
	transport *provider.Transport
	opts      Options
}

// NewGitLab builds a connector for serverURL. Credentials carrying their own
// server URL override it.
func NewGitLab(serverURL string, transport *provider.Transport, opts Options) *GitLab {
	return &GitLab{serverURL: serverURL, transport: transport, opts: opts.withDefaults()}
}

func (g *GitLab) Provider() models.Provider {
	return models.ProviderGitLab
}

func (g *GitLab) api(cred *provider.Credential) *gitlab.Client {
	if cred != nil && cred.ServerURL != "" {
		return gitlab.New(cred.ServerURL, g.transport)
	}
	return gitlab.New(g.serverURL, g.transport)
}

func (g *GitLab) FetchPipelines(ctx context.Context, cred *provider.Credential, targets models.Targets) (*provider.Snapshot, error) {
	var (
		out  collector
		pool = worker.NewPool(g.opts.Concurrency)
		api  = g.api(cred)
	)

	for _, t := range target.ForProvider(targets, models.ProviderGitLab) {
		if err := pool.Submit(ctx, func(ctx context.Context) error {
			return g.fetchProject(ctx, api, cred, t, &out)
		}); err != nil {
			_ = pool.Wait()
			return nil, err
		}
	}

	if err := pool.Wait(); err != nil {
		return nil, err
	}
	return out.snapshot(), nil
}

func (g *GitLab) fetchProject(ctx context.Context, api *gitlab.Client, cred *provider.Credential, t *models.Target, out *collector) error {
	project, err := api.GetProject(ctx, cred, t.Locator)
	if err != nil {
		return err
	}

	p := normalize.GitLabProject(*project)
	if t.Branch != "" {
		p.Branch = t.Branch
	}
	ref := strconv.FormatInt(project.ID, 10)

	pipelines, err := api.ListPipelines(ctx, cred, ref, gitlab.PipelineQuery{
		Ref:     t.Branch,
		PerPage: pipelinesPerProject,
	})
	if err != nil {
		return err
	}

	var builds models.Builds
	for _, pl := range pipelines {
		if len(builds) >= g.opts.BuildsPerPipeline {
			break
		}
		jobs, err := api.ListJobs(ctx, cred, ref, pl.ID, nil, false)
		if err != nil {
			return err
		}
		for _, job := range jobs {
			if len(builds) >= g.opts.BuildsPerPipeline {
				break
			}
			if !target.Match(t.Include, job.Name) {
				continue
			}
			builds = append(builds, normalize.GitLabJob(p.ID, job))
		}
	}

	normalize.Summarize(p, normalize.Latest(builds))
	out.add(p, builds)
	return nil
}

// Trigger creates a pipeline on the branch and returns its first job.
func (g *GitLab) Trigger(ctx context.Context, cred *provider.Credential, pipeline *models.Pipeline, opts provider.TriggerOptions) (*models.Build, error) {
	api := g.api(cred)
	branch := branchOr(opts, pipeline)

	created, err := api.CreatePipeline(ctx, cred, pipeline.ExternalRef, branch)
	if err != nil {
		return nil, err
	}

	jobs, err := api.ListJobs(ctx, cred, pipeline.ExternalRef, created.ID, nil, false)
	if err != nil || len(jobs) == 0 {
		return pending(pipeline, branch, g.opts.Now()), nil
	}

	first := jobs[0]
	for _, j := range jobs[1:] {
		if j.ID < first.ID {
			first = j
		}
	}
	return normalize.GitLabJob(pipeline.ID, first), nil
}

// Retry retries the job; GitLab answers with the new job.
func (g *GitLab) Retry(ctx context.Context, cred *provider.Credential, pipeline *models.Pipeline, build *models.Build) (*models.Build, error) {
	jobID, err := gitLabJobID(build)
	if err != nil {
		return nil, err
	}
	job, err := g.api(cred).RetryJob(ctx, cred, pipeline.ExternalRef, jobID)
	if err != nil {
		return nil, err
	}
	return normalize.GitLabJob(pipeline.ID, *job), nil
}

func (g *GitLab) Cancel(ctx context.Context, cred *provider.Credential, pipeline *models.Pipeline, build *models.Build) (*models.Build, error) {
	jobID, err := gitLabJobID(build)
	if err != nil {
		return nil, err
	}
	job, err := g.api(cred).CancelJob(ctx, cred, pipeline.ExternalRef, jobID)
	if err != nil {
		return nil, err
	}
	return normalize.GitLabJob(pipeline.ID, *job), nil
}

func (g *GitLab) Logs(ctx context.Context, cred *provider.Credential, pipeline *models.Pipeline, build *models.Build) (string, error) {
	jobID, err := gitLabJobID(build)
	if err != nil {
		return "", err
	}
	return g.api(cred).JobTrace(ctx, cred, pipeline.ExternalRef, jobID)
}

func (g *GitLab) CurrentUser(ctx context.Context, cred *provider.Credential) (*models.User, error) {
	u, err := g.api(cred).CurrentUser(ctx, cred)
	if err != nil {
		return nil, err
	}
	return normalize.GitLabUser(*u, g.opts.Now()), nil
}

func gitLabJobID(build *models.Build) (int64, error) {
	id, err := strconv.ParseInt(models.NativeID(build.ID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("gitlab: malformed job id %q: %w", build.ID, err)
	}
	return id, nil
}
