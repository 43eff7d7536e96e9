package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/caesium-cloud/cimon/cmd/client"
	"github.com/caesium-cloud/cimon/internal/account"
	"github.com/caesium-cloud/cimon/internal/event"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/syncer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/suite"
)

type fakeClient struct {
	pipelines models.Pipelines
	builds    map[string]models.Builds
	accounts  []account.Status

	triggered []string
	retried   []string
	cancelled []string
	err       error
}

func (f *fakeClient) Pipelines(context.Context, string, int) (models.Pipelines, error) {
	return f.pipelines, f.err
}

func (f *fakeClient) Builds(_ context.Context, pipelineID string, _ int) (models.Builds, error) {
	return f.builds[pipelineID], f.err
}

func (f *fakeClient) AuthStatus(context.Context) ([]account.Status, error) {
	return f.accounts, f.err
}

func (f *fakeClient) Trigger(_ context.Context, pipelineID, _ string, _ map[string]string) (*models.Build, error) {
	f.triggered = append(f.triggered, pipelineID)
	return &models.Build{ID: pipelineID + "_new", BuildNumber: "42", Status: models.BuildStatusPending}, f.err
}

func (f *fakeClient) Retry(_ context.Context, buildID string) (*models.Build, error) {
	f.retried = append(f.retried, buildID)
	return &models.Build{ID: buildID, BuildNumber: "7"}, f.err
}

func (f *fakeClient) Cancel(_ context.Context, buildID string) error {
	f.cancelled = append(f.cancelled, buildID)
	return f.err
}

func (f *fakeClient) Sync(context.Context, string) (*syncer.Result, error) {
	return &syncer.Result{Providers: []syncer.ProviderResult{{Provider: models.ProviderGitHub}}}, f.err
}

func (f *fakeClient) Events(context.Context, client.EventFilter) (<-chan event.Event, error) {
	ch := make(chan event.Event)
	close(ch)
	return ch, nil
}

type ModelSuite struct {
	suite.Suite
	client *fakeClient
}

func TestModelSuite(t *testing.T) {
	suite.Run(t, new(ModelSuite))
}

func (s *ModelSuite) SetupTest() {
	running := models.BuildStatusRunning
	s.client = &fakeClient{
		pipelines: models.Pipelines{
			{ID: "github_1", Name: "ci", Provider: models.ProviderGitHub, Branch: "main", LastRunStatus: &running},
			{ID: "jenkins_deploy", Name: "deploy", Provider: models.ProviderJenkins},
		},
		builds: map[string]models.Builds{
			"github_1": {
				{ID: "github_11", PipelineID: "github_1", BuildNumber: "11", Status: models.BuildStatusRunning, CanCancel: true},
				{ID: "github_10", PipelineID: "github_1", BuildNumber: "10", Status: models.BuildStatusSuccess},
			},
			"jenkins_deploy": {
				{ID: "jenkins_deploy#3", PipelineID: "jenkins_deploy", BuildNumber: "3", Status: models.BuildStatusFailure, CanRestart: true},
			},
		},
		accounts: []account.Status{{Provider: models.ProviderGitHub, Authenticated: true, User: &models.User{Username: "octo"}}},
	}
}

func (s *ModelSuite) update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	res, cmd := m.Update(msg)
	return res.(Model), cmd
}

func (s *ModelSuite) loaded() Model {
	m, cmd := s.update(New(s.client), fetchData(s.client)())
	if cmd != nil {
		m, _ = s.update(m, cmd())
	}
	return m
}

func key(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func (s *ModelSuite) TestDataLoadedSelectsFirstPipeline() {
	m := s.loaded()

	s.Equal(statusReady, m.state)
	s.Equal("github_1", m.pipelineID)
	s.Len(m.pipelines.Rows(), 2)
	s.Len(m.buildData, 2)
	s.Len(m.accounts.Rows(), 1)
	s.Equal("octo", m.accounts.Rows()[0][2])
}

func (s *ModelSuite) TestStaleBuildsAreIgnored() {
	m := s.loaded()

	m, _ = s.update(m, buildsLoadedMsg{pipelineID: "jenkins_deploy", builds: s.client.builds["jenkins_deploy"]})
	s.Len(m.buildData, 2)
}

func (s *ModelSuite) TestEnterOpensBuildsOfSelectedPipeline() {
	m := s.loaded()
	m.pipelines.SetCursor(1)

	m, cmd := s.update(m, key("enter"))
	s.Equal(sectionBuilds, m.active)
	s.Equal("jenkins_deploy", m.pipelineID)
	s.Empty(m.buildData)

	m, _ = s.update(m, cmd())
	s.Require().Len(m.buildData, 1)
	s.Equal("jenkins_deploy#3", m.buildData[0].ID)

	m, _ = s.update(m, key("esc"))
	s.Equal(sectionPipelines, m.active)
}

func (s *ModelSuite) TestTriggerSelectedPipeline() {
	m := s.loaded()

	m, cmd := s.update(m, key("t"))
	s.Require().NotNil(cmd)
	msg := cmd()
	s.Equal([]string{"github_1"}, s.client.triggered)

	m, _ = s.update(m, msg)
	s.Equal("trigger accepted: build #42", m.actionStatus)
	s.False(m.actionErr)
}

func (s *ModelSuite) TestRetryRequiresRestartableBuild() {
	m := s.loaded()
	m = m.activate(sectionBuilds)

	m, cmd := s.update(m, key("R"))
	s.Nil(cmd)
	s.True(m.actionErr)
	s.Contains(m.actionStatus, "cannot be retried")
	s.Empty(s.client.retried)
}

func (s *ModelSuite) TestCancelRunningBuild() {
	m := s.loaded()
	m = m.activate(sectionBuilds)

	m, cmd := s.update(m, key("c"))
	s.Require().NotNil(cmd)
	msg := cmd()
	s.Equal([]string{"github_11"}, s.client.cancelled)

	m, _ = s.update(m, msg)
	s.Equal("cancel requested for github_11", m.actionStatus)
}

func (s *ModelSuite) TestActionFailureIsReported() {
	m := s.loaded()

	m, _ = s.update(m, actionDoneMsg{action: "trigger", target: "github_1", err: errors.New("rate limited")})
	s.True(m.actionErr)
	s.Equal("trigger github_1 failed: rate limited", m.actionStatus)
}

func (s *ModelSuite) TestSyncDone() {
	m := s.loaded()

	m, cmd := s.update(m, key("s"))
	s.True(m.syncing)
	m, _ = s.update(m, cmd())
	s.False(m.syncing)
	s.Equal("1/1 providers synced", m.actionStatus)
}

func (s *ModelSuite) TestLoadErrorIsRendered() {
	m, _ := s.update(New(s.client), errMsg{errors.New("connection refused")})

	s.Equal(statusError, m.state)
	s.Contains(m.View(), "connection refused")
}

func (s *ModelSuite) TestSyncPhaseEventUpdatesStatus() {
	m := s.loaded()
	evt := event.NewEvent(event.TypeSyncPhase, models.ProviderGitHub, syncer.PhaseChange{Phase: syncer.PhaseFetchingRemote})

	m, _ = s.update(m, eventMsg{evt})
	s.Equal("github: fetching_remote", m.actionStatus)
}

func (s *ModelSuite) TestStreamLifecycle() {
	m := s.loaded()

	ch, err := s.client.Events(context.Background(), client.EventFilter{})
	s.Require().NoError(err)
	m, cmd := s.update(m, streamOpenedMsg{events: ch})
	s.True(m.live)
	s.Contains(m.View(), "live")

	m, _ = s.update(m, cmd())
	s.False(m.live)
	s.Contains(m.View(), "polling")
}

func (s *ModelSuite) TestTabCyclesSections() {
	m := s.loaded()

	m, _ = s.update(m, key("tab"))
	s.Equal(sectionBuilds, m.active)
	m, _ = s.update(m, key("tab"))
	s.Equal(sectionAccounts, m.active)
	m, _ = s.update(m, key("tab"))
	s.Equal(sectionPipelines, m.active)
	s.Equal(sectionAccounts, sectionPipelines.prev())
}

func (s *ModelSuite) TestEmptyCacheHint() {
	s.client.pipelines = nil
	m := s.loaded()

	s.True(strings.Contains(m.View(), "No pipelines cached yet"))
}
