package start

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider"
	"github.com/caesium-cloud/cimon/internal/testutil"
	"github.com/caesium-cloud/cimon/pkg/env"
	"github.com/stretchr/testify/suite"
)

type StartSuite struct {
	suite.Suite
	ctx  context.Context
	vars env.Environment
}

func TestStartSuite(t *testing.T) {
	suite.Run(t, new(StartSuite))
}

func (s *StartSuite) SetupTest() {
	s.ctx = context.Background()
	for _, key := range []string{"GITHUB_TOKEN", "GITLAB_TOKEN", "JENKINS_TOKEN"} {
		s.T().Setenv(key, "")
	}
	s.vars = env.Environment{
		VaultBackend:   "local",
		VaultDir:       s.T().TempDir(),
		SyncMaxElapsed: time.Second,
		BuildRetention: time.Hour,
	}
}

func (s *StartSuite) writeTargets(content string) string {
	path := filepath.Join(s.T().TempDir(), "targets.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *StartSuite) TestWireDefaultsScheduleToPollingInterval() {
	a, err := wire(s.ctx, s.vars, testutil.OpenTestDB(s.T()), provider.NewRegistry())
	s.Require().NoError(err)
	s.Equal("*/5 * * * *", a.schedule.ID())
	s.NotNil(a.deps.Dispatcher)
	s.NotNil(a.deps.Accounts)
	s.NotNil(a.deps.OAuth)
}

func (s *StartSuite) TestWireHonoursExplicitSchedule() {
	s.vars.SyncSchedule = "0 9 * * 1-5"
	s.vars.SyncTimezone = "UTC"

	a, err := wire(s.ctx, s.vars, testutil.OpenTestDB(s.T()), provider.NewRegistry())
	s.Require().NoError(err)
	s.Equal("0 9 * * 1-5", a.schedule.ID())
}

func (s *StartSuite) TestWireRejectsBadSchedule() {
	s.vars.SyncSchedule = "every tuesday"

	_, err := wire(s.ctx, s.vars, testutil.OpenTestDB(s.T()), provider.NewRegistry())
	s.Error(err)
}

func (s *StartSuite) TestWireRejectsUnknownVault() {
	s.vars.VaultBackend = "keychain"

	_, err := wire(s.ctx, s.vars, testutil.OpenTestDB(s.T()), provider.NewRegistry())
	s.Error(err)
}

func (s *StartSuite) TestWireImportsTargets() {
	s.vars.TargetsFile = s.writeTargets(`
targets:
  - provider: github
    locator: octo/hello
  - provider: jenkins
    locator: platform
`)

	a, err := wire(s.ctx, s.vars, testutil.OpenTestDB(s.T()), provider.NewRegistry())
	s.Require().NoError(err)

	targets, err := a.cache.ListTargets(s.ctx, "")
	s.Require().NoError(err)
	s.Len(targets, 2)
}

func (s *StartSuite) TestWireFailsOnMissingTargetsFile() {
	s.vars.TargetsFile = filepath.Join(s.T().TempDir(), "missing.yaml")

	_, err := wire(s.ctx, s.vars, testutil.OpenTestDB(s.T()), provider.NewRegistry())
	s.Error(err)
}

func (s *StartSuite) TestPruneStopsOnCancel() {
	a, err := wire(s.ctx, s.vars, testutil.OpenTestDB(s.T()), provider.NewRegistry())
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- a.prune(ctx, time.Hour) }()
	cancel()

	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("prune did not stop")
	}
}

func (s *StartSuite) TestPreferencesSurviveWire() {
	conn := testutil.OpenTestDB(s.T())
	a, err := wire(s.ctx, s.vars, conn, provider.NewRegistry())
	s.Require().NoError(err)

	prefs, err := a.cache.Preferences(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.DefaultPollingInterval, prefs.PollingInterval)
}
