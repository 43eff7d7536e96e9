// Package dispatch routes user actions on cached records to the owning
// provider and writes the outcome back to the cache.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/caesium-cloud/cimon/internal/cache"
	"github.com/caesium-cloud/cimon/internal/event"
	"github.com/caesium-cloud/cimon/internal/metrics"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/normalize"
	"github.com/caesium-cloud/cimon/internal/provider"
	"github.com/caesium-cloud/cimon/internal/target"
	"github.com/caesium-cloud/cimon/pkg/log"
)

const (
	actionTrigger = "trigger"
	actionRetry   = "retry"
	actionCancel  = "cancel"
	actionLogs    = "logs"
)

// Credentials resolves the active credential of a provider.
type Credentials interface {
	Get(ctx context.Context, p models.Provider) (*provider.Credential, bool)
}

// Dispatcher performs trigger, retry, cancel and log requests.
type Dispatcher struct {
	cache       *cache.Store
	credentials Credentials
	registry    *provider.Registry
	bus         event.Bus
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithBus publishes build_triggered, build_retried and build_cancelled.
func WithBus(bus event.Bus) Option {
	return func(d *Dispatcher) {
		if bus != nil {
			d.bus = bus
		}
	}
}

// New builds a dispatcher.
func New(store *cache.Store, credentials Credentials, registry *provider.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cache:       store,
		credentials: credentials,
		registry:    registry,
		bus:         event.Discard,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// resolve finds the provider owning id and the client and credential to use.
// No cache or provider state is touched when it fails.
func (d *Dispatcher) resolve(ctx context.Context, id string) (provider.Client, *provider.Credential, error) {
	p, err := models.ProviderFromID(id)
	if err != nil {
		return nil, nil, err
	}

	cred, ok := d.credentials.Get(ctx, p)
	if !ok {
		return nil, nil, &provider.NoCredentialError{Provider: p}
	}

	client, err := d.registry.Get(p)
	if err != nil {
		return nil, nil, err
	}

	return client, cred, nil
}

func (d *Dispatcher) build(ctx context.Context, buildID string) (*models.Pipeline, *models.Build, error) {
	build, err := d.cache.GetBuild(ctx, buildID)
	if err != nil {
		return nil, nil, fmt.Errorf("build %s: %w", buildID, err)
	}

	pipeline, err := d.cache.GetPipeline(ctx, build.PipelineID)
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline %s: %w", build.PipelineID, err)
	}

	return pipeline, build, nil
}

// Trigger starts a new run of a pipeline on branch, or on the pipeline's
// default branch when branch is nil or empty.
func (d *Dispatcher) Trigger(ctx context.Context, pipelineID string, branch *string) (*models.Build, error) {
	var opts provider.TriggerOptions
	if branch != nil {
		opts.Branch = strings.TrimSpace(*branch)
	}
	return d.TriggerWith(ctx, pipelineID, opts)
}

// TriggerWith starts a new run with explicit inputs. Parameters of the
// targets covering the pipeline fill in inputs the caller left out.
//
// A run that the provider accepted but does not expose yet is returned as a
// PENDING build with an empty id; it is not cached.
func (d *Dispatcher) TriggerWith(ctx context.Context, pipelineID string, opts provider.TriggerOptions) (build *models.Build, err error) {
	client, cred, err := d.resolve(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	defer d.observe(client.Provider(), actionTrigger, &err)

	pipeline, err := d.cache.GetPipeline(ctx, pipelineID)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", pipelineID, err)
	}

	if opts.Branch == "" {
		opts.Branch = pipeline.Branch
	}
	if opts.Inputs, err = d.inputs(ctx, pipeline, opts.Inputs); err != nil {
		return nil, err
	}

	build, err = client.Trigger(ctx, cred, pipeline, opts)
	if err != nil {
		return nil, err
	}

	if err = d.record(ctx, pipeline, build); err != nil {
		return nil, err
	}

	d.publish(event.TypeBuildTriggered, pipeline, build)
	return build, nil
}

func (d *Dispatcher) inputs(ctx context.Context, pipeline *models.Pipeline, given map[string]string) (map[string]string, error) {
	targets, err := d.cache.ListTargets(ctx, pipeline.Provider)
	if err != nil {
		return nil, fmt.Errorf("load targets: %w", err)
	}

	var out map[string]string
	for _, t := range targets {
		if !target.Covers(t, pipeline) {
			continue
		}
		for k, v := range t.Parameters {
			if out == nil {
				out = make(map[string]string)
			}
			if _, ok := out[k]; !ok {
				out[k] = fmt.Sprint(v)
			}
		}
	}

	for k, v := range given {
		if out == nil {
			out = make(map[string]string, len(given))
		}
		out[k] = v
	}
	return out, nil
}

// Retry re-runs a build and returns the new or restarted run.
func (d *Dispatcher) Retry(ctx context.Context, buildID string) (build *models.Build, err error) {
	client, cred, err := d.resolve(ctx, buildID)
	if err != nil {
		return nil, err
	}
	defer d.observe(client.Provider(), actionRetry, &err)

	pipeline, original, err := d.build(ctx, buildID)
	if err != nil {
		return nil, err
	}

	build, err = client.Retry(ctx, cred, pipeline, original)
	if err != nil {
		return nil, err
	}

	if err = d.record(ctx, pipeline, build); err != nil {
		return nil, err
	}

	d.publish(event.TypeBuildRetried, pipeline, build)
	return build, nil
}

// Cancel stops a running build.
func (d *Dispatcher) Cancel(ctx context.Context, buildID string) (err error) {
	client, cred, err := d.resolve(ctx, buildID)
	if err != nil {
		return err
	}
	defer d.observe(client.Provider(), actionCancel, &err)

	pipeline, original, err := d.build(ctx, buildID)
	if err != nil {
		return err
	}

	updated, err := client.Cancel(ctx, cred, pipeline, original)
	if err != nil {
		return err
	}
	if updated == nil {
		updated = original
	}

	if err = d.record(ctx, pipeline, updated); err != nil {
		return err
	}

	d.publish(event.TypeBuildCancelled, pipeline, updated)
	return nil
}

// Logs returns the plain text log of a build.
func (d *Dispatcher) Logs(ctx context.Context, buildID string) (logs string, err error) {
	client, cred, err := d.resolve(ctx, buildID)
	if err != nil {
		return "", err
	}
	defer d.observe(client.Provider(), actionLogs, &err)

	pipeline, build, err := d.build(ctx, buildID)
	if err != nil {
		return "", err
	}

	return client.Logs(ctx, cred, pipeline, build)
}

// record writes an observable build to the cache and refreshes the
// pipeline's last-run summary.
func (d *Dispatcher) record(ctx context.Context, pipeline *models.Pipeline, build *models.Build) error {
	if build == nil || build.ID == "" {
		return nil
	}
	if build.PipelineID == "" {
		build.PipelineID = pipeline.ID
	}

	if err := d.cache.UpsertBuild(ctx, build); err != nil {
		return fmt.Errorf("cache build %s: %w", build.ID, err)
	}

	latest, err := d.cache.LatestBuild(ctx, pipeline.ID)
	if err != nil {
		return fmt.Errorf("latest build of %s: %w", pipeline.ID, err)
	}

	return d.cache.UpsertPipelines(ctx, models.Pipelines{normalize.Summarize(pipeline, latest)})
}

func (d *Dispatcher) publish(t event.Type, pipeline *models.Pipeline, build *models.Build) {
	e := event.NewEvent(t, pipeline.Provider, build)
	e.PipelineID = pipeline.ID
	e.BuildID = build.ID
	d.bus.Publish(e)
}

func (d *Dispatcher) observe(p models.Provider, action string, err *error) {
	metrics.ActionsTotal.WithLabelValues(string(p), action, metrics.Outcome(*err)).Inc()
	if *err != nil {
		log.Warn("action failed", "provider", p, "action", action, "error", *err)
		return
	}
	log.Info("action dispatched", "provider", p, "action", action)
}
