package syncer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/caesium-cloud/cimon/internal/cache"
	"github.com/caesium-cloud/cimon/internal/event"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider"
	"github.com/caesium-cloud/cimon/internal/testutil"
	"github.com/stretchr/testify/suite"
)

type fakeCredentials map[models.Provider]*provider.Credential

func (f fakeCredentials) Get(_ context.Context, p models.Provider) (*provider.Credential, bool) {
	cred, ok := f[p]
	return cred, ok
}

type fakeClient struct {
	provider.Client
	p     models.Provider
	mu    sync.Mutex
	calls int
	fetch func(call int) (*provider.Snapshot, error)
	// gate, when set, runs before fetch and may block on ctx
	gate func(ctx context.Context) error
}

func (f *fakeClient) Provider() models.Provider { return f.p }

func (f *fakeClient) FetchPipelines(ctx context.Context, cred *provider.Credential, _ models.Targets) (*provider.Snapshot, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	if f.gate != nil {
		if err := f.gate(ctx); err != nil {
			return nil, err
		}
	}

	if cred == nil || cred.Provider != f.p {
		return nil, &provider.AuthError{Provider: f.p}
	}
	return f.fetch(call)
}

func (f *fakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var epoch = time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

func pipeline(p models.Provider, native string) *models.Pipeline {
	return &models.Pipeline{
		ID:          p.Prefix() + "_" + native,
		Name:        native,
		Provider:    p,
		Branch:      "main",
		Status:      models.PipelineStatusActive,
		IsActive:    true,
		ExternalRef: native,
		CreatedAt:   epoch,
		UpdatedAt:   epoch,
	}
}

func build(pl *models.Pipeline, native string, status models.BuildStatus) *models.Build {
	return &models.Build{
		ID:          pl.Provider.Prefix() + "_" + native,
		PipelineID:  pl.ID,
		BuildNumber: native,
		Status:      status,
		Branch:      "main",
		CreatedAt:   epoch,
		UpdatedAt:   epoch,
	}
}

func snapshot(pipelines models.Pipelines, builds models.Builds) func(int) (*provider.Snapshot, error) {
	return func(int) (*provider.Snapshot, error) {
		return &provider.Snapshot{Pipelines: pipelines, Builds: builds}, nil
	}
}

type SyncerSuite struct {
	suite.Suite
	ctx     context.Context
	cache   *cache.Store
	bus     event.Bus
	github  *fakeClient
	gitlab  *fakeClient
	jenkins *fakeClient
	creds   fakeCredentials
	orch    *Orchestrator
}

func TestSyncerSuite(t *testing.T) {
	suite.Run(t, new(SyncerSuite))
}

func (s *SyncerSuite) SetupTest() {
	s.ctx = context.Background()
	s.cache = cache.New(testutil.OpenTestDB(s.T()))
	s.bus = event.New()

	gh := pipeline(models.ProviderGitHub, "101")
	gl := pipeline(models.ProviderGitLab, "7")

	s.github = &fakeClient{p: models.ProviderGitHub, fetch: snapshot(
		models.Pipelines{gh},
		models.Builds{build(gh, "9001", models.BuildStatusRunning), build(gh, "9000", models.BuildStatusSuccess)},
	)}
	s.gitlab = &fakeClient{p: models.ProviderGitLab, fetch: snapshot(
		models.Pipelines{gl},
		models.Builds{build(gl, "70", models.BuildStatusFailure)},
	)}
	s.jenkins = &fakeClient{p: models.ProviderJenkins, fetch: snapshot(nil, nil)}

	s.creds = fakeCredentials{
		models.ProviderGitHub: {Provider: models.ProviderGitHub, AccessToken: "ghp"},
		models.ProviderGitLab: {Provider: models.ProviderGitLab, AccessToken: "glpat"},
	}

	registry := provider.NewRegistry(s.github, s.gitlab, s.jenkins)
	s.orch = New(s.cache, s.creds, registry, WithBus(s.bus))
}

func (s *SyncerSuite) TestSyncAllPartialFailure() {
	result := s.orch.SyncAll(s.ctx)

	s.Require().Len(result.Providers, 3)
	s.False(result.OK())

	failed := result.Failed()
	s.Require().Len(failed, 1)
	s.Equal(models.ProviderJenkins, failed[0].Provider)

	var nc *provider.NoCredentialError
	s.Require().True(errors.As(result.Err(), &nc))
	s.Equal(models.ProviderJenkins, nc.Provider)
	s.True(strings.HasPrefix(result.Summary(), "2/3 providers synced; failed: JENKINS"))
	s.Zero(s.jenkins.Calls())

	count, err := s.cache.CountActivePipelines(s.ctx, "")
	s.Require().NoError(err)
	s.Equal(int64(2), count)

	s.Equal(PhaseDone, s.orch.Phase(models.ProviderGitHub))
	s.Equal(PhasePartiallyFailed, s.orch.Phase(models.ProviderJenkins))
}

func (s *SyncerSuite) TestSyncAllReportsUncredentialedProviders() {
	delete(s.creds, models.ProviderGitLab)

	result := s.orch.SyncAll(s.ctx)

	s.Require().Len(result.Providers, 3)
	s.False(result.OK())
	s.True(strings.HasPrefix(result.Summary(), "1/3 providers synced; failed: "))

	failed := make([]models.Provider, 0, 2)
	for _, pr := range result.Failed() {
		var nc *provider.NoCredentialError
		s.True(errors.As(pr.Err, &nc), pr.Error)
		failed = append(failed, pr.Provider)
	}
	s.ElementsMatch([]models.Provider{models.ProviderGitLab, models.ProviderJenkins}, failed)
	s.Zero(s.gitlab.Calls())
	s.Zero(s.jenkins.Calls())
	s.Equal(1, s.github.Calls())
}

func (s *SyncerSuite) TestFailureKeepsOtherProviders() {
	s.gitlab.fetch = func(int) (*provider.Snapshot, error) {
		return nil, &provider.ProviderError{Provider: models.ProviderGitLab, Status: 500, Body: "boom"}
	}

	result := s.orch.SyncAll(s.ctx)
	s.False(result.OK())

	var pe *provider.ProviderError
	s.Require().True(errors.As(result.Err(), &pe))
	s.Equal(500, pe.Status)

	_, err := s.cache.GetPipeline(s.ctx, "github_101")
	s.NoError(err)
	_, err = s.cache.GetPipeline(s.ctx, "gitlab_7")
	s.ErrorIs(err, cache.ErrNotFound)
}

// holdFetch blocks github fetches until release is closed or the run's
// context ends. started is closed when the first fetch begins.
func (s *SyncerSuite) holdFetch() (started, release chan struct{}) {
	started = make(chan struct{})
	release = make(chan struct{})
	var once sync.Once
	s.github.gate = func(ctx context.Context) error {
		once.Do(func() { close(started) })
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return started, release
}

func (s *SyncerSuite) waiters(p models.Provider) int {
	s.orch.fmu.Lock()
	defer s.orch.fmu.Unlock()
	if f, ok := s.orch.flights[p]; ok {
		return f.waiters
	}
	return 0
}

func (s *SyncerSuite) TestSharedSyncOutlivesCancelledCaller() {
	started, release := s.holdFetch()

	foreground, cancel := context.WithCancel(s.ctx)
	defer cancel()

	first := make(chan ProviderResult, 1)
	go func() { first <- s.orch.SyncOne(foreground, models.ProviderGitHub) }()
	<-started

	second := make(chan ProviderResult, 1)
	go func() { second <- s.orch.SyncOne(s.ctx, models.ProviderGitHub) }()
	s.Eventually(func() bool { return s.waiters(models.ProviderGitHub) == 2 }, time.Second, time.Millisecond)

	cancel()
	abandoned := <-first
	s.ErrorIs(abandoned.Err, context.Canceled)

	close(release)
	result := <-second
	s.True(result.OK(), result.Error)
	s.Equal(1, result.Pipelines)
	s.Equal(1, s.github.Calls())
	s.Equal(PhaseDone, s.orch.Phase(models.ProviderGitHub))
}

func (s *SyncerSuite) TestSyncOneCancelAbandonsRun() {
	started, _ := s.holdFetch()

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan ProviderResult, 1)
	go func() { done <- s.orch.SyncOne(ctx, models.ProviderGitHub) }()
	<-started

	cancel()
	s.ErrorIs((<-done).Err, context.Canceled)

	// the shared run sees the cancellation and records the failure
	s.Eventually(func() bool {
		return s.orch.Phase(models.ProviderGitHub) == PhasePartiallyFailed
	}, time.Second, time.Millisecond)
	s.Zero(s.waiters(models.ProviderGitHub))

	s.github.gate = nil
	s.True(s.orch.SyncOne(s.ctx, models.ProviderGitHub).OK())
	s.Equal(2, s.github.Calls())
}

func (s *SyncerSuite) TestSyncOneIsIdempotent() {
	first := s.orch.SyncOne(s.ctx, models.ProviderGitHub)
	s.Require().True(first.OK())
	s.Equal(1, first.Pipelines)
	s.Equal(2, first.Builds)
	s.Equal(1, first.Changed)

	second := s.orch.SyncOne(s.ctx, models.ProviderGitHub)
	s.Require().True(second.OK())
	s.Zero(second.Changed)
	s.Zero(second.Deactivated)

	builds, err := s.cache.ListBuilds(s.ctx, "github_101", 0)
	s.Require().NoError(err)
	s.Len(builds, 2)
}

func (s *SyncerSuite) TestForeignRecordsDropped() {
	gh := pipeline(models.ProviderGitHub, "101")
	stray := pipeline(models.ProviderGitLab, "55")
	s.github.fetch = snapshot(
		models.Pipelines{gh, gh, stray},
		models.Builds{
			build(gh, "1", models.BuildStatusSuccess),
			build(gh, "1", models.BuildStatusSuccess),
			build(stray, "2", models.BuildStatusSuccess),
			{ID: "github_3", PipelineID: "github_missing", Status: models.BuildStatusSuccess},
		},
	)

	result := s.orch.SyncOne(s.ctx, models.ProviderGitHub)
	s.Require().True(result.OK(), result.Error)
	s.Equal(1, result.Pipelines)
	s.Equal(1, result.Builds)
}

func (s *SyncerSuite) TestMissingPipelinesDeactivated() {
	s.Require().True(s.orch.SyncOne(s.ctx, models.ProviderGitHub).OK())

	s.github.fetch = snapshot(nil, nil)
	result := s.orch.SyncOne(s.ctx, models.ProviderGitHub)
	s.Require().True(result.OK())
	s.Equal(int64(1), result.Deactivated)

	pl, err := s.cache.GetPipeline(s.ctx, "github_101")
	s.Require().NoError(err)
	s.False(pl.IsActive)
}

func (s *SyncerSuite) TestStatusTransitionsPublished() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	events, err := s.bus.Subscribe(ctx, event.Filter{Types: []event.Type{event.TypeBuildStatusChanged}})
	s.Require().NoError(err)

	// initial import is quiet
	s.Require().True(s.orch.SyncOne(s.ctx, models.ProviderGitHub).OK())

	gh := pipeline(models.ProviderGitHub, "101")
	s.github.fetch = snapshot(
		models.Pipelines{gh},
		models.Builds{
			build(gh, "9002", models.BuildStatusPending),
			build(gh, "9001", models.BuildStatusFailure),
			build(gh, "9000", models.BuildStatusSuccess),
		},
	)
	s.Require().True(s.orch.SyncOne(s.ctx, models.ProviderGitHub).OK())

	got := map[string]models.BuildStatus{}
	for len(got) < 2 {
		select {
		case e := <-events:
			s.Equal("github_101", e.PipelineID)
			got[e.BuildID] = ""
			if e.BuildID == "github_9001" {
				s.Contains(string(e.Payload), `"previous":"RUNNING"`)
			}
		case <-time.After(time.Second):
			s.FailNow("expected status change events", "got %v", got)
		}
	}
	s.Contains(got, "github_9001")
	s.Contains(got, "github_9002")

	select {
	case e := <-events:
		s.Failf("unexpected event", "%s", e.BuildID)
	default:
	}
}

func (s *SyncerSuite) TestRetryingRecoversTransientFailures() {
	s.gitlab.fetch = func(call int) (*provider.Snapshot, error) {
		if call < 3 {
			return nil, &provider.TransportError{Provider: models.ProviderGitLab, Err: errors.New("connection reset")}
		}
		return &provider.Snapshot{Pipelines: models.Pipelines{pipeline(models.ProviderGitLab, "7")}}, nil
	}

	retrying := NewRetrying(s.orch, RetryPolicy{InitialInterval: time.Millisecond, MaxElapsedTime: time.Second, MaxRetries: 4})
	result := retrying.SyncAll(s.ctx)

	// jenkins has no credential and is not retried
	s.True(strings.HasPrefix(result.Summary(), "2/3 providers synced; failed: JENKINS"), result.Summary())
	s.Zero(s.jenkins.Calls())
	s.Equal(3, s.gitlab.Calls())
	s.Equal(1, s.github.Calls())
}

func (s *SyncerSuite) TestRetryingGivesUp() {
	s.gitlab.fetch = func(int) (*provider.Snapshot, error) {
		return nil, &provider.RateLimitError{Provider: models.ProviderGitLab}
	}

	retrying := NewRetrying(s.orch, RetryPolicy{InitialInterval: time.Millisecond, MaxElapsedTime: time.Second, MaxRetries: 2})
	result := retrying.SyncOne(s.ctx, models.ProviderGitLab)

	s.False(result.OK())
	s.Equal(3, s.gitlab.Calls())
}

func (s *SyncerSuite) TestRetryingSkipsPermanentFailures() {
	s.gitlab.fetch = func(int) (*provider.Snapshot, error) {
		return nil, &provider.AuthError{Provider: models.ProviderGitLab, Status: 401}
	}
	delete(s.creds, models.ProviderGitHub)

	retrying := NewRetrying(s.orch, RetryPolicy{InitialInterval: time.Millisecond, MaxElapsedTime: time.Second, MaxRetries: 4})

	s.False(retrying.SyncOne(s.ctx, models.ProviderGitLab).OK())
	s.Equal(1, s.gitlab.Calls())

	missing := retrying.SyncOne(s.ctx, models.ProviderGitHub)
	var nc *provider.NoCredentialError
	s.True(errors.As(missing.Err, &nc))
	s.Zero(s.github.Calls())
}
