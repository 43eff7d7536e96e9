package connector

import (
	"context"
	"fmt"
	"strings"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/normalize"
	"github.com/caesium-cloud/cimon/internal/provider"
	"github.com/caesium-cloud/cimon/internal/provider/jenkins"
	"github.com/caesium-cloud/cimon/internal/target"
	"github.com/caesium-cloud/cimon/internal/worker"
)

// Jenkins serves the jobs of the server named by the credential. Without
// targets every top-level job is monitored.
type Jenkins struct {
	api  *jenkins.Client
	opts Options
}

func NewJenkins(api *jenkins.Client, opts Options) *Jenkins {
	return &Jenkins{api: api, opts: opts.withDefaults()}
}

func (j *Jenkins) Provider() models.Provider {
	return models.ProviderJenkins
}

func (j *Jenkins) FetchPipelines(ctx context.Context, cred *provider.Credential, targets models.Targets) (*provider.Snapshot, error) {
	scoped := target.ForProvider(targets, models.ProviderJenkins)
	if len(scoped) == 0 {
		scoped = models.Targets{{Provider: models.ProviderJenkins}}
	}

	var (
		out  collector
		pool = worker.NewPool(j.opts.Concurrency)
		seen = make(map[string]bool)
	)

	for _, t := range scoped {
		jobs, err := j.api.ListJobs(ctx, cred, t.Locator)
		if err != nil {
			_ = pool.Wait()
			return nil, err
		}

		for _, job := range jobs {
			if isFolder(job) || seen[job.FullName] || !target.Match(t.Include, job.FullName) {
				continue
			}
			seen[job.FullName] = true

			name := job.FullName
			if err := pool.Submit(ctx, func(ctx context.Context) error {
				return j.fetchJob(ctx, cred, name, &out)
			}); err != nil {
				_ = pool.Wait()
				return nil, err
			}
		}
	}

	if err := pool.Wait(); err != nil {
		return nil, err
	}
	return out.snapshot(), nil
}

func (j *Jenkins) fetchJob(ctx context.Context, cred *provider.Credential, name string, out *collector) error {
	job, err := j.api.GetJob(ctx, cred, name)
	if err != nil {
		return err
	}
	job.FullName = name

	p := normalize.JenkinsJob(*job)

	refs := job.Builds
	if len(refs) > j.opts.BuildsPerPipeline {
		refs = refs[:j.opts.BuildsPerPipeline]
	}
	builds := make(models.Builds, 0, len(refs))
	for i, ref := range refs {
		if i == 0 {
			// the newest build carries the commit shown on the dashboard
			if full, err := j.api.GetBuild(ctx, cred, name, ref.Number); err == nil {
				builds = append(builds, normalize.JenkinsBuild(p.ID, name, *full))
				continue
			}
		}
		builds = append(builds, normalize.JenkinsBuildRef(p.ID, name, ref))
	}

	normalize.Summarize(p, normalize.Latest(builds))
	out.add(p, builds)
	return nil
}

func isFolder(job jenkins.Job) bool {
	return strings.Contains(job.Class, "Folder") || strings.Contains(job.Class, "MultiBranchProject")
}

// Trigger schedules the job. When the queue already assigned an executor
// the started build is returned, otherwise a transient pending record.
func (j *Jenkins) Trigger(ctx context.Context, cred *provider.Credential, pipeline *models.Pipeline, opts provider.TriggerOptions) (*models.Build, error) {
	return j.schedule(ctx, cred, pipeline, opts.Branch, opts.Inputs)
}

// Retry rebuilds the job with the parameters of the original build.
func (j *Jenkins) Retry(ctx context.Context, cred *provider.Credential, pipeline *models.Pipeline, build *models.Build) (*models.Build, error) {
	name, number, err := jenkins.ParseBuildNumber(models.NativeID(build.ID))
	if err != nil {
		return nil, err
	}

	var params map[string]string
	if original, err := j.api.GetBuild(ctx, cred, name, number); err == nil {
		params = parameters(*original)
	} else if !provider.IsNotFound(err) {
		return nil, err
	}

	return j.schedule(ctx, cred, pipeline, build.Branch, params)
}

func (j *Jenkins) schedule(ctx context.Context, cred *provider.Credential, pipeline *models.Pipeline, branch string, params map[string]string) (*models.Build, error) {
	name := pipeline.ExternalRef
	location, err := j.api.Build(ctx, cred, name, params)
	if err != nil {
		return nil, err
	}

	if location != "" {
		item, err := j.api.QueueItem(ctx, cred, location)
		if err == nil && item.Executable != nil {
			if full, err := j.api.GetBuild(ctx, cred, name, item.Executable.Number); err == nil {
				return normalize.JenkinsBuild(pipeline.ID, name, *full), nil
			}
		}
	}
	return pending(pipeline, branch, j.opts.Now()), nil
}

// Cancel is not offered: a stop needs the job and build number pairing
// rather than a record id.
func (j *Jenkins) Cancel(context.Context, *provider.Credential, *models.Pipeline, *models.Build) (*models.Build, error) {
	return nil, &provider.UnsupportedOperationError{Provider: models.ProviderJenkins, Operation: "cancel"}
}

func (j *Jenkins) Logs(ctx context.Context, cred *provider.Credential, _ *models.Pipeline, build *models.Build) (string, error) {
	name, number, err := jenkins.ParseBuildNumber(models.NativeID(build.ID))
	if err != nil {
		return "", err
	}
	return j.api.ConsoleText(ctx, cred, name, number)
}

func (j *Jenkins) CurrentUser(ctx context.Context, cred *provider.Credential) (*models.User, error) {
	u, err := j.api.Me(ctx, cred)
	if err != nil {
		return nil, err
	}
	return normalize.JenkinsUser(cred.ServerURL, *u, j.opts.Now()), nil
}

func parameters(build jenkins.Build) map[string]string {
	var out map[string]string
	for _, a := range build.Actions {
		for _, p := range a.Parameters {
			if out == nil {
				out = make(map[string]string)
			}
			out[p.Name] = fmt.Sprint(p.Value)
		}
	}
	return out
}
