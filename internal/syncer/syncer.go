// Package syncer pulls remote state from every registered provider into
// the local cache.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/caesium-cloud/cimon/internal/cache"
	"github.com/caesium-cloud/cimon/internal/event"
	"github.com/caesium-cloud/cimon/internal/metrics"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider"
	"github.com/caesium-cloud/cimon/pkg/log"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Credentials resolves the active credential of a provider.
type Credentials interface {
	Get(ctx context.Context, p models.Provider) (*provider.Credential, bool)
}

// Syncer is implemented by Orchestrator and Retrying.
type Syncer interface {
	SyncOne(ctx context.Context, p models.Provider) ProviderResult
	SyncAll(ctx context.Context) Result
}

// StatusChange is the payload of a build_status_changed event.
type StatusChange struct {
	Build    *models.Build      `json:"build"`
	Pipeline string             `json:"pipeline"`
	Previous models.BuildStatus `json:"previous,omitempty"`
}

// PhaseChange is the payload of a sync_phase event.
type PhaseChange struct {
	Phase Phase `json:"phase"`
}

// Orchestrator runs provider syncs against the cache.
type Orchestrator struct {
	cache       *cache.Store
	credentials Credentials
	registry    *provider.Registry
	bus         event.Bus

	group   singleflight.Group
	fmu     sync.Mutex
	flights map[models.Provider]*flight

	mu     sync.RWMutex
	phases map[models.Provider]Phase
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithBus publishes phase, completion and build status events to bus.
func WithBus(bus event.Bus) Option {
	return func(o *Orchestrator) {
		if bus != nil {
			o.bus = bus
		}
	}
}

// New builds an orchestrator.
func New(store *cache.Store, credentials Credentials, registry *provider.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cache:       store,
		credentials: credentials,
		registry:    registry,
		bus:         event.Discard,
		phases:      make(map[models.Provider]Phase),
		flights:     make(map[models.Provider]*flight),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Phases returns the last known phase of every provider that has synced.
func (o *Orchestrator) Phases() map[models.Provider]Phase {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make(map[models.Provider]Phase, len(o.phases))
	for p, phase := range o.phases {
		out[p] = phase
	}
	return out
}

// Phase returns the last known phase of p.
func (o *Orchestrator) Phase(p models.Provider) Phase {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if phase, ok := o.phases[p]; ok {
		return phase
	}
	return PhaseIdle
}

func (o *Orchestrator) enter(p models.Provider, phase Phase) {
	o.mu.Lock()
	o.phases[p] = phase
	o.mu.Unlock()

	log.Debug("sync phase", "provider", p, "phase", phase)
	o.bus.Publish(event.NewEvent(event.TypeSyncPhase, p, PhaseChange{Phase: phase}))
}

// flight is the context of a shared run, cancelled once no caller waits on it.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// SyncOne syncs a single provider. Concurrent calls for the same provider
// share one run. A caller whose ctx ends stops waiting and gets ctx.Err(); the
// run itself is cancelled only when every caller has gone.
func (o *Orchestrator) SyncOne(ctx context.Context, p models.Provider) ProviderResult {
	o.fmu.Lock()
	f, ok := o.flights[p]
	if !ok {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: runCtx, cancel: cancel}
		o.flights[p] = f
	}
	f.waiters++
	ch := o.group.DoChan(string(p), func() (interface{}, error) {
		defer o.land(p, f)
		return o.syncOne(f.ctx, p), nil
	})
	o.fmu.Unlock()

	select {
	case r := <-ch:
		o.leave(p, f, false)
		return r.Val.(ProviderResult)
	case <-ctx.Done():
		o.leave(p, f, true)
		return ProviderResult{Provider: p, Err: ctx.Err(), Error: ctx.Err().Error()}
	}
}

// land retires f once its run returns.
func (o *Orchestrator) land(p models.Provider, f *flight) {
	o.fmu.Lock()
	if o.flights[p] == f {
		delete(o.flights, p)
	}
	o.fmu.Unlock()
	f.cancel()
}

// leave drops a waiter from f. The last waiter to give up cancels the run and
// makes the next caller start a fresh one.
func (o *Orchestrator) leave(p models.Provider, f *flight, gaveUp bool) {
	o.fmu.Lock()
	defer o.fmu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	if o.flights[p] == f {
		delete(o.flights, p)
	}
	if gaveUp {
		o.group.Forget(string(p))
	}
	f.cancel()
}

func (o *Orchestrator) syncOne(ctx context.Context, p models.Provider) (result ProviderResult) {
	start := time.Now()
	result.Provider = p

	defer func() {
		result.Duration = time.Since(start)
		outcome := metrics.Outcome(result.Err)
		metrics.SyncRunsTotal.WithLabelValues(string(p), outcome).Inc()
		metrics.SyncDurationSeconds.WithLabelValues(string(p), outcome).Observe(result.Duration.Seconds())

		if result.Err != nil {
			result.Error = result.Err.Error()
			o.enter(p, PhasePartiallyFailed)
			log.Warn("provider sync failed", "provider", p, "error", result.Err)
			o.bus.Publish(event.NewEvent(event.TypeSyncFailed, p, result))
			return
		}

		o.enter(p, PhaseDone)
		log.Info("provider sync complete",
			"provider", p,
			"pipelines", result.Pipelines,
			"builds", result.Builds,
			"changed", result.Changed,
			"duration", result.Duration)
		o.bus.Publish(event.NewEvent(event.TypeSyncCompleted, p, result))
	}()

	o.enter(p, PhaseFetchingCredentials)
	cred, ok := o.credentials.Get(ctx, p)
	if !ok {
		result.Err = &provider.NoCredentialError{Provider: p}
		return result
	}

	client, err := o.registry.Get(p)
	if err != nil {
		result.Err = err
		return result
	}

	targets, err := o.cache.ListTargets(ctx, p)
	if err != nil {
		result.Err = fmt.Errorf("load targets: %w", err)
		return result
	}

	o.enter(p, PhaseFetchingRemote)
	snapshot, err := client.FetchPipelines(ctx, cred, targets)
	if err != nil {
		result.Err = err
		return result
	}

	o.enter(p, PhaseNormalizing)
	pipelines, builds := prepare(p, snapshot)

	previous, err := o.cache.PipelinesByProvider(ctx, p)
	if err != nil {
		result.Err = fmt.Errorf("load cached pipelines: %w", err)
		return result
	}

	ids := make([]string, 0, len(builds))
	for _, b := range builds {
		ids = append(ids, b.ID)
	}
	statuses, err := o.cache.BuildStatuses(ctx, ids)
	if err != nil {
		result.Err = fmt.Errorf("load cached builds: %w", err)
		return result
	}

	o.enter(p, PhaseReconciling)
	if err := o.cache.Reconcile(ctx, pipelines, builds); err != nil {
		result.Err = fmt.Errorf("reconcile: %w", err)
		return result
	}

	keep := make([]string, 0, len(pipelines))
	for _, pl := range pipelines {
		keep = append(keep, pl.ID)
	}
	if result.Deactivated, err = o.cache.DeactivateMissing(ctx, p, keep); err != nil {
		result.Err = fmt.Errorf("deactivate missing pipelines: %w", err)
		return result
	}

	result.Pipelines = len(pipelines)
	result.Builds = len(builds)
	result.Changed = changed(previous, pipelines)
	if result.Deactivated > 0 {
		result.Changed += int(result.Deactivated)
	}

	o.publishTransitions(p, builds, statuses, len(previous) > 0)

	if count, err := o.cache.CountActivePipelines(ctx, p); err == nil {
		metrics.PipelinesCached.WithLabelValues(string(p)).Set(float64(count))
	}

	return result
}

// prepare drops records that belong to another provider, collapses duplicate
// ids and keeps only builds whose pipeline is part of the snapshot.
func prepare(p models.Provider, snapshot *provider.Snapshot) (models.Pipelines, models.Builds) {
	if snapshot == nil {
		return models.Pipelines{}, models.Builds{}
	}

	var (
		pipelines = make(models.Pipelines, 0, len(snapshot.Pipelines))
		builds    = make(models.Builds, 0, len(snapshot.Builds))
		known     = make(map[string]bool, len(snapshot.Pipelines))
		seen      = make(map[string]bool, len(snapshot.Builds))
	)

	for _, pl := range snapshot.Pipelines {
		if pl == nil || pl.Provider != p || known[pl.ID] {
			continue
		}
		if owner, err := models.ProviderFromID(pl.ID); err != nil || owner != p {
			log.Warn("dropping pipeline with foreign id", "provider", p, "pipeline_id", pl.ID)
			continue
		}
		known[pl.ID] = true
		pipelines = append(pipelines, pl)
	}

	for _, b := range snapshot.Builds {
		if b == nil || b.ID == "" || !known[b.PipelineID] || seen[b.ID] {
			continue
		}
		seen[b.ID] = true
		builds = append(builds, b)
	}

	return pipelines, builds
}

var pipelineCompare = cmp.Options{
	cmpopts.IgnoreFields(models.Pipeline{}, "Builds"),
	cmpopts.EquateEmpty(),
}

func changed(previous, current models.Pipelines) int {
	cached := make(map[string]*models.Pipeline, len(previous))
	for _, pl := range previous {
		cached[pl.ID] = pl
	}

	n := 0
	for _, pl := range current {
		old, ok := cached[pl.ID]
		if !ok || !cmp.Equal(old, pl, pipelineCompare) {
			n++
		}
	}
	return n
}

// publishTransitions emits build_status_changed for every build whose status
// differs from the cached one. Builds seen for the first time only count once
// the provider has been synced before, so the initial import stays quiet.
func (o *Orchestrator) publishTransitions(p models.Provider, builds models.Builds, previous map[string]models.BuildStatus, seeded bool) {
	for _, b := range builds {
		old, cached := previous[b.ID]
		if cached && old == b.Status {
			continue
		}
		if !cached && !seeded {
			continue
		}

		metrics.BuildTransitionsTotal.WithLabelValues(string(p), string(b.Status)).Inc()

		e := event.NewEvent(event.TypeBuildStatusChanged, p, StatusChange{
			Build:    b,
			Pipeline: b.PipelineID,
			Previous: old,
		})
		e.PipelineID = b.PipelineID
		e.BuildID = b.ID
		o.bus.Publish(e)
	}
}

// SyncAll syncs every registered provider concurrently. A provider without
// an active credential fails with NoCredentialError and its adapter is never
// called. Providers are independent: a failure in one leaves the others'
// cache updates in place.
func (o *Orchestrator) SyncAll(ctx context.Context) Result {
	providers := o.registry.Providers()
	results := make([]ProviderResult, len(providers))

	var g errgroup.Group
	for i, p := range providers {
		g.Go(func() error {
			results[i] = o.SyncOne(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	result := Result{Providers: results}
	log.Info("sync finished", "summary", result.Summary())

	return result
}
