package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/suite"
	"gorm.io/datatypes"
)

type CacheSuite struct {
	suite.Suite
	ctx   context.Context
	store *Store
	now   time.Time
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = New(testutil.OpenTestDB(s.T()))
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *CacheSuite) pipeline(id string, p models.Provider, updated time.Time) *models.Pipeline {
	return &models.Pipeline{
		ID:          id,
		Name:        id,
		Provider:    p,
		Branch:      "main",
		Status:      models.PipelineStatusActive,
		IsActive:    true,
		ExternalRef: "acme/api",
		CreatedAt:   s.now,
		UpdatedAt:   updated,
	}
}

func (s *CacheSuite) build(id, pipelineID string, status models.BuildStatus, created time.Time) *models.Build {
	return &models.Build{
		ID:          id,
		PipelineID:  pipelineID,
		BuildNumber: id,
		Status:      status,
		Branch:      "main",
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func (s *CacheSuite) TestUpsertIsIdempotent() {
	p := s.pipeline("github_1", models.ProviderGitHub, s.now)
	s.Require().NoError(s.store.UpsertPipelines(s.ctx, models.Pipelines{p}))
	s.Require().NoError(s.store.UpsertPipelines(s.ctx, models.Pipelines{p}))

	testutil.AssertCount(s.T(), s.store.DB(), &models.Pipeline{}, 1)

	got, err := s.store.GetPipeline(s.ctx, "github_1")
	s.Require().NoError(err)
	if diff := cmp.Diff(p, got); diff != "" {
		s.Failf("pipeline mismatch", "(-want +got):\n%s", diff)
	}
}

func (s *CacheSuite) TestUpsertReplacesFields() {
	p := s.pipeline("github_1", models.ProviderGitHub, s.now)
	s.Require().NoError(s.store.UpsertPipelines(s.ctx, models.Pipelines{p}))

	status := models.BuildStatusFailure
	p.LastRunStatus = &status
	p.Name = "renamed"
	s.Require().NoError(s.store.UpsertPipelines(s.ctx, models.Pipelines{p}))

	got, err := s.store.GetPipeline(s.ctx, "github_1")
	s.Require().NoError(err)
	s.Equal("renamed", got.Name)
	s.Require().NotNil(got.LastRunStatus)
	s.Equal(models.BuildStatusFailure, *got.LastRunStatus)
}

func (s *CacheSuite) TestListPipelinesActiveOnly() {
	s.Require().NoError(s.store.UpsertPipelines(s.ctx, models.Pipelines{
		s.pipeline("github_1", models.ProviderGitHub, s.now),
		s.pipeline("github_2", models.ProviderGitHub, s.now.Add(time.Hour)),
		s.pipeline("jenkins_deploy", models.ProviderJenkins, s.now.Add(2*time.Hour)),
	}))
	s.Require().NoError(s.store.DeactivatePipeline(s.ctx, "github_1"))

	all, err := s.store.ListPipelines(s.ctx, &ListRequest{})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("jenkins_deploy", all[0].ID)
	s.Equal("github_2", all[1].ID)

	gh, err := s.store.ListPipelines(s.ctx, &ListRequest{Provider: models.ProviderGitHub})
	s.Require().NoError(err)
	s.Require().Len(gh, 1)

	paged, err := s.store.ListPipelines(s.ctx, &ListRequest{Limit: 1, Offset: 1})
	s.Require().NoError(err)
	s.Require().Len(paged, 1)
	s.Equal("github_2", paged[0].ID)

	count, err := s.store.CountActivePipelines(s.ctx, "")
	s.Require().NoError(err)
	s.Equal(int64(2), count)

	// soft-deleted rows are still readable by id
	inactive, err := s.store.GetPipeline(s.ctx, "github_1")
	s.Require().NoError(err)
	s.False(inactive.IsActive)

	s.ErrorIs(s.store.DeactivatePipeline(s.ctx, "github_missing"), ErrNotFound)
}

func (s *CacheSuite) TestDeactivateMissing() {
	s.Require().NoError(s.store.UpsertPipelines(s.ctx, models.Pipelines{
		s.pipeline("github_1", models.ProviderGitHub, s.now),
		s.pipeline("github_2", models.ProviderGitHub, s.now),
		s.pipeline("gitlab_3", models.ProviderGitLab, s.now),
	}))

	n, err := s.store.DeactivateMissing(s.ctx, models.ProviderGitHub, []string{"github_2"})
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	all, err := s.store.PipelinesByProvider(s.ctx, models.ProviderGitHub)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.False(all[0].IsActive)
	s.True(all[1].IsActive)

	n, err = s.store.DeactivateMissing(s.ctx, models.ProviderGitLab, nil)
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *CacheSuite) TestBuildsOrderedAndLimited() {
	s.Require().NoError(s.store.UpsertPipelines(s.ctx, models.Pipelines{s.pipeline("github_1", models.ProviderGitHub, s.now)}))

	builds := make(models.Builds, 0, 25)
	for i := 0; i < 25; i++ {
		builds = append(builds, s.build(fmt.Sprintf("github_%d", 100+i), "github_1", models.BuildStatusSuccess, s.now.Add(time.Duration(i)*time.Minute)))
	}
	s.Require().NoError(s.store.UpsertBuilds(s.ctx, builds))

	listed, err := s.store.ListBuilds(s.ctx, "github_1", 0)
	s.Require().NoError(err)
	s.Len(listed, DefaultBuildLimit)
	s.Equal("github_124", listed[0].ID)

	latest, err := s.store.LatestBuild(s.ctx, "github_1")
	s.Require().NoError(err)
	s.Equal("github_124", latest.ID)

	count, err := s.store.CountBuilds(s.ctx, "github_1")
	s.Require().NoError(err)
	s.Equal(int64(25), count)

	_, err = s.store.LatestBuild(s.ctx, "github_2")
	s.ErrorIs(err, ErrNotFound)
}

func (s *CacheSuite) TestDeletePipelineCascades() {
	s.Require().NoError(s.store.Reconcile(s.ctx,
		models.Pipelines{s.pipeline("gitlab_7", models.ProviderGitLab, s.now)},
		models.Builds{
			s.build("gitlab_70", "gitlab_7", models.BuildStatusRunning, s.now),
			s.build("gitlab_71", "gitlab_7", models.BuildStatusFailure, s.now),
		},
	))
	testutil.AssertCount(s.T(), s.store.DB(), &models.Build{}, 2)

	s.Require().NoError(s.store.DeletePipeline(s.ctx, "gitlab_7"))
	testutil.AssertCount(s.T(), s.store.DB(), &models.Pipeline{}, 0)
	testutil.AssertCount(s.T(), s.store.DB(), &models.Build{}, 0)

	s.ErrorIs(s.store.DeletePipeline(s.ctx, "gitlab_7"), ErrNotFound)
}

func (s *CacheSuite) TestDeletePipelinesByProvider() {
	s.Require().NoError(s.store.Reconcile(s.ctx,
		models.Pipelines{
			s.pipeline("gitlab_7", models.ProviderGitLab, s.now),
			s.pipeline("github_1", models.ProviderGitHub, s.now),
		},
		models.Builds{
			s.build("gitlab_70", "gitlab_7", models.BuildStatusRunning, s.now),
			s.build("github_10", "github_1", models.BuildStatusRunning, s.now),
		},
	))

	deleted, err := s.store.DeletePipelinesByProvider(s.ctx, models.ProviderGitLab)
	s.Require().NoError(err)
	s.Equal(int64(1), deleted)
	testutil.AssertCount(s.T(), s.store.DB(), &models.Pipeline{}, 1)
	testutil.AssertCount(s.T(), s.store.DB(), &models.Build{}, 1, "pipeline_id = ?", "github_1")
}

func (s *CacheSuite) TestStatusQueriesAndPruning() {
	s.Require().NoError(s.store.Reconcile(s.ctx,
		models.Pipelines{s.pipeline("github_1", models.ProviderGitHub, s.now)},
		models.Builds{
			s.build("github_10", "github_1", models.BuildStatusRunning, s.now.Add(-48*time.Hour)),
			s.build("github_11", "github_1", models.BuildStatusFailure, s.now.Add(-48*time.Hour)),
			s.build("github_12", "github_1", models.BuildStatusSuccess, s.now),
		},
	))

	running, err := s.store.BuildsByStatus(s.ctx, models.BuildStatusRunning, models.BuildStatusPending)
	s.Require().NoError(err)
	s.Require().Len(running, 1)
	s.Equal("github_10", running[0].ID)

	statuses, err := s.store.BuildStatuses(s.ctx, []string{"github_11", "github_12", "github_99"})
	s.Require().NoError(err)
	s.Equal(map[string]models.BuildStatus{
		"github_11": models.BuildStatusFailure,
		"github_12": models.BuildStatusSuccess,
	}, statuses)

	pruned, err := s.store.DeleteOldBuilds(s.ctx, s.now.Add(-24*time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), pruned)

	_, err = s.store.GetBuild(s.ctx, "github_11")
	s.ErrorIs(err, ErrNotFound)
	_, err = s.store.GetBuild(s.ctx, "github_10")
	s.NoError(err)
}

func (s *CacheSuite) TestConcurrentProviderWriters() {
	var wg sync.WaitGroup
	for _, p := range models.Providers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := p.Prefix() + "_1"
			s.NoError(s.store.Reconcile(s.ctx,
				models.Pipelines{s.pipeline(id, p, s.now)},
				models.Builds{s.build(p.Prefix()+"_10", id, models.BuildStatusSuccess, s.now)},
			))
		}()
	}
	wg.Wait()

	testutil.AssertCount(s.T(), s.store.DB(), &models.Pipeline{}, 3)
	testutil.AssertCount(s.T(), s.store.DB(), &models.Build{}, 3)
}

func (s *CacheSuite) TestSaveUserKeepsOneActive() {
	s.Require().NoError(s.store.SaveUser(s.ctx, &models.User{ID: "github_1", Provider: models.ProviderGitHub, Username: "octocat"}))
	s.Require().NoError(s.store.SaveUser(s.ctx, &models.User{ID: "github_2", Provider: models.ProviderGitHub, Username: "hubot"}))
	s.Require().NoError(s.store.SaveUser(s.ctx, &models.User{ID: "jenkins_bot", Provider: models.ProviderJenkins, Username: "bot"}))

	user, err := s.store.ActiveUser(s.ctx, models.ProviderGitHub)
	s.Require().NoError(err)
	s.Equal("hubot", user.Username)

	users, err := s.store.ActiveUsers(s.ctx)
	s.Require().NoError(err)
	s.Len(users, 2)

	s.Require().NoError(s.store.DeactivateUsers(s.ctx, models.ProviderGitHub))
	_, err = s.store.ActiveUser(s.ctx, models.ProviderGitHub)
	s.ErrorIs(err, ErrNotFound)
}

func (s *CacheSuite) TestTargets() {
	t := &models.Target{
		Provider:   models.ProviderGitHub,
		Locator:    "acme/api",
		Include:    ".github/workflows/ci.yml",
		Parameters: datatypes.JSONMap{"env": "staging"},
	}
	s.Require().NoError(s.store.SaveTarget(s.ctx, t))
	s.NotEmpty(t.ID)

	again := &models.Target{Provider: models.ProviderGitHub, Locator: "acme/api", Branch: "develop"}
	s.Require().NoError(s.store.SaveTarget(s.ctx, again))
	s.Equal(t.ID, again.ID)

	targets, err := s.store.ListTargets(s.ctx, models.ProviderGitHub)
	s.Require().NoError(err)
	s.Require().Len(targets, 1)
	s.Equal("develop", targets[0].Branch)

	s.Require().NoError(s.store.DeleteTarget(s.ctx, t.ID))
	s.ErrorIs(s.store.DeleteTarget(s.ctx, t.ID), ErrNotFound)
}

func (s *CacheSuite) TestPreferences() {
	prefs, err := s.store.Preferences(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.DefaultPollingInterval, prefs.PollingInterval)
	s.True(prefs.NotifyOnFailure)

	prefs.PollingInterval = 500
	prefs.NotifyOnSuccess = true
	s.Require().NoError(s.store.SavePreferences(s.ctx, prefs))

	stored, err := s.store.Preferences(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.MaxPollingInterval, stored.PollingInterval)
	s.True(stored.NotifyOnSuccess)
}
