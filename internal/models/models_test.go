package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type ModelsTestSuite struct {
	suite.Suite
}

func (s *ModelsTestSuite) TestParseProvider() {
	for input, want := range map[string]Provider{
		"GITHUB_ACTIONS": ProviderGitHub,
		"github":         ProviderGitHub,
		"GitLab":         ProviderGitLab,
		"gitlab_ci":      ProviderGitLab,
		" jenkins ":      ProviderJenkins,
	} {
		got, err := ParseProvider(input)
		assert.NoError(s.T(), err, input)
		assert.Equal(s.T(), want, got, input)
	}

	_, err := ParseProvider("circleci")
	assert.Error(s.T(), err)
}

func (s *ModelsTestSuite) TestProviderFromID() {
	p, err := ProviderFromID("gitlab_12345")
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), ProviderGitLab, p)

	p, err = ProviderFromID("jenkins_deploy_prod#4")
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), ProviderJenkins, p)
	assert.Equal(s.T(), "deploy_prod#4", NativeID("jenkins_deploy_prod#4"))

	_, err = ProviderFromID("12345")
	assert.Error(s.T(), err)
	_, err = ProviderFromID("travis_1")
	assert.Error(s.T(), err)
}

func (s *ModelsTestSuite) TestTerminalStatuses() {
	terminal := []BuildStatus{BuildStatusSuccess, BuildStatusFailure, BuildStatusCancelled, BuildStatusSkipped}
	for _, st := range terminal {
		assert.True(s.T(), st.Terminal(), st)
	}
	for _, st := range []BuildStatus{BuildStatusPending, BuildStatusRunning, BuildStatusUnknown} {
		assert.False(s.T(), st.Terminal(), st)
	}
}

func (s *ModelsTestSuite) TestClampPollingInterval() {
	assert.Equal(s.T(), 1, ClampPollingInterval(0))
	assert.Equal(s.T(), 60, ClampPollingInterval(240))
	assert.Equal(s.T(), 15, ClampPollingInterval(15))
	assert.Equal(s.T(), DefaultPollingInterval, DefaultPreferences().PollingInterval)
	assert.True(s.T(), DefaultPreferences().NotifyOnFailure)
}

func TestModelsTestSuite(t *testing.T) {
	suite.Run(t, new(ModelsTestSuite))
}
