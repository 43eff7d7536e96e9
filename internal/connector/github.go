package connector

import (
	"context"
	"fmt"
	"strconv"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/normalize"
	"github.com/caesium-cloud/cimon/internal/provider"
	"github.com/caesium-cloud/cimon/internal/provider/github"
	"github.com/caesium-cloud/cimon/internal/target"
	"github.com/caesium-cloud/cimon/internal/worker"
)

// GitHub serves GitHub Actions workflows of the targeted repositories.
type GitHub struct {
	api  *github.Client
	opts Options
}

func NewGitHub(api *github.Client, opts Options) *GitHub {
	return &GitHub{api: api, opts: opts.withDefaults()}
}

func (g *GitHub) Provider() models.Provider {
	return models.ProviderGitHub
}

// FetchPipelines lists the workflows of every targeted repository together
// with their recent runs. Repositories are fetched concurrently.
func (g *GitHub) FetchPipelines(ctx context.Context, cred *provider.Credential, targets models.Targets) (*provider.Snapshot, error) {
	var (
		out  collector
		pool = worker.NewPool(g.opts.Concurrency)
	)

	for _, t := range target.ForProvider(targets, models.ProviderGitHub) {
		owner, repo, err := target.SplitRepository(t.Locator)
		if err != nil {
			_ = pool.Wait()
			return nil, err
		}
		if err := pool.Submit(ctx, func(ctx context.Context) error {
			return g.fetchRepository(ctx, cred, owner, repo, t, &out)
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

func (g *GitHub) fetchRepository(ctx context.Context, cred *provider.Credential, owner, repo string, t *models.Target, out *collector) error {
	workflows, err := g.api.ListWorkflows(ctx, cred, owner, repo)
	if err != nil {
		return err
	}

	page, err := g.api.ListRuns(ctx, cred, owner, repo, github.RunQuery{
		Branch:  t.Branch,
		PerPage: 100,
	})
	if err != nil {
		return err
	}

	runs := make(map[int64][]github.Run)
	for _, run := range page.Runs {
		if len(runs[run.WorkflowID]) < g.opts.BuildsPerPipeline {
			runs[run.WorkflowID] = append(runs[run.WorkflowID], run)
		}
	}

	for _, wf := range workflows {
		if !target.Match(t.Include, wf.Path) {
			continue
		}
		p := normalize.GitHubWorkflow(owner, repo, wf)
		p.Branch = t.Branch

		builds := make(models.Builds, 0, len(runs[wf.ID]))
		for _, run := range runs[wf.ID] {
			builds = append(builds, normalize.GitHubRun(p.ID, run))
		}
		normalize.Summarize(p, normalize.Latest(builds))
		out.add(p, builds)
	}
	return nil
}

// Trigger dispatches the workflow and returns the run it started when
// GitHub already lists it.
func (g *GitHub) Trigger(ctx context.Context, cred *provider.Credential, pipeline *models.Pipeline, opts provider.TriggerOptions) (*models.Build, error) {
	owner, repo, workflowID, err := g.locate(pipeline)
	if err != nil {
		return nil, err
	}

	branch := branchOr(opts, pipeline)
	dispatched := g.opts.Now()

	req := github.DispatchRequest{Ref: branch}
	if len(opts.Inputs) > 0 {
		req.Inputs = make(map[string]any, len(opts.Inputs))
		for k, v := range opts.Inputs {
			req.Inputs[k] = v
		}
	}
	if err := g.api.DispatchWorkflow(ctx, cred, owner, repo, workflowID, req); err != nil {
		return nil, err
	}

	page, err := g.api.ListWorkflowRuns(ctx, cred, owner, repo, workflowID, github.RunQuery{
		Branch:  branch,
		Event:   "workflow_dispatch",
		PerPage: 1,
	})
	if err != nil || len(page.Runs) == 0 {
		return pending(pipeline, branch, dispatched), nil
	}

	b := normalize.GitHubRun(pipeline.ID, page.Runs[0])
	// allow for clock skew between cimon and GitHub
	if b.CreatedAt.Before(dispatched.Add(-dispatchSkew)) {
		return pending(pipeline, branch, dispatched), nil
	}
	return b, nil
}

func (g *GitHub) Retry(ctx context.Context, cred *provider.Credential, pipeline *models.Pipeline, build *models.Build) (*models.Build, error) {
	return g.act(ctx, cred, pipeline, build, g.api.RerunRun)
}

func (g *GitHub) Cancel(ctx context.Context, cred *provider.Credential, pipeline *models.Pipeline, build *models.Build) (*models.Build, error) {
	return g.act(ctx, cred, pipeline, build, g.api.CancelRun)
}

func (g *GitHub) act(ctx context.Context, cred *provider.Credential, pipeline *models.Pipeline, build *models.Build,
	fn func(context.Context, *provider.Credential, string, string, int64) error) (*models.Build, error) {
	owner, repo, _, err := g.locate(pipeline)
	if err != nil {
		return nil, err
	}
	runID, err := strconv.ParseInt(models.NativeID(build.ID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("github: malformed run id %q: %w", build.ID, err)
	}

	if err := fn(ctx, cred, owner, repo, runID); err != nil {
		return nil, err
	}

	run, err := g.api.GetRun(ctx, cred, owner, repo, runID)
	if err != nil {
		return nil, err
	}
	return normalize.GitHubRun(pipeline.ID, *run), nil
}

func (g *GitHub) Logs(ctx context.Context, cred *provider.Credential, pipeline *models.Pipeline, build *models.Build) (string, error) {
	owner, repo, _, err := g.locate(pipeline)
	if err != nil {
		return "", err
	}
	runID, err := strconv.ParseInt(models.NativeID(build.ID), 10, 64)
	if err != nil {
		return "", fmt.Errorf("github: malformed run id %q: %w", build.ID, err)
	}
	return g.api.RunLogs(ctx, cred, owner, repo, runID)
}

func (g *GitHub) CurrentUser(ctx context.Context, cred *provider.Credential) (*models.User, error) {
	u, err := g.api.CurrentUser(ctx, cred)
	if err != nil {
		return nil, err
	}
	return normalize.GitHubUser(*u, g.opts.Now()), nil
}

func (g *GitHub) locate(pipeline *models.Pipeline) (owner, repo string, workflowID int64, err error) {
	owner, repo, err = target.SplitRepository(pipeline.ExternalRef)
	if err != nil {
		return "", "", 0, err
	}
	workflowID, err = strconv.ParseInt(models.NativeID(pipeline.ID), 10, 64)
	if err != nil {
		return "", "", 0, fmt.Errorf("github: malformed workflow id %q: %w", pipeline.ID, err)
	}
	return owner, repo, workflowID, nil
}
