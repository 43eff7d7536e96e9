package connector

import (
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider"
	"github.com/caesium-cloud/cimon/internal/provider/github"
	"github.com/caesium-cloud/cimon/internal/provider/jenkins"
	"github.com/caesium-cloud/cimon/pkg/env"
)

// Config selects endpoints and limits for the default connectors.
type Config struct {
	GitHubURL   string
	GitLabURL   string
	Timeout     time.Duration
	RateLimit   float64
	Concurrency int
}

// ConfigFromEnvironment reads Config from the processed CIMON_* variables.
func ConfigFromEnvironment() Config {
	vars := env.Variables()
	return Config{
		GitHubURL:   vars.GitHubURL,
		GitLabURL:   vars.GitLabURL,
		Timeout:     vars.HTTPTimeout,
		RateLimit:   vars.ProviderRateLimit,
		Concurrency: vars.FetchConcurrency,
	}
}

// NewRegistry wires the three connectors, each behind its own rate limiter
// and wrapped with logging and metrics.
func NewRegistry(cfg Config) *provider.Registry {
	opts := Options{Concurrency: cfg.Concurrency}
	transport := func(p models.Provider) *provider.Transport {
		return provider.NewTransport(p, cfg.Timeout, cfg.RateLimit)
	}

	return provider.NewRegistry(
		instrument(NewGitHub(github.New(cfg.GitHubURL, transport(models.ProviderGitHub)), opts)),
		instrument(NewGitLab(cfg.GitLabURL, transport(models.ProviderGitLab), opts)),
		instrument(NewJenkins(jenkins.New(transport(models.ProviderJenkins)), opts)),
	)
}

func instrument(c provider.Client) provider.Client {
	return provider.NewLoggingClient(provider.NewMetricsClient(c))
}
