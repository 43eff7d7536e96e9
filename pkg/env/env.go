package env

import (
	"time"

	"github.com/caesium-cloud/cimon/pkg/log"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

var variables = new(Environment)

// Process the environment variables set for cimon.
func Process() error {
	if err := envconfig.Process("cimon", variables); err != nil {
		return errors.Wrap(err, "failed to process environment variables")
	}

	// set the log level
	if err := log.SetLevel(variables.LogLevel); err != nil {
		return errors.Wrap(err, "failed to set log level")
	}

	return nil
}

// Variables returns the processed environment variables.
func Variables() Environment {
	return *variables
}

// Environment defines the environment variables used
// by cimon.
type Environment struct {
	LogLevel     string `default:"info"`
	Port         int    `default:"8080"`
	DatabaseType string `default:"sqlite"`
	DatabaseDSN  string `default:"cimon.db?_busy_timeout=5000&_journal_mode=WAL"`

	SyncSchedule       string        `default:""`
	SyncTimezone       string        `default:""`
	SyncMaxElapsed     time.Duration `default:"2m"`
	SyncInitialBackoff time.Duration `default:"2s"`
	SyncMaxRetries     uint64        `default:"4"`
	FetchConcurrency   int           `default:"4"`
	BuildRetention     time.Duration `default:"720h"`

	ProviderRateLimit float64       `default:"10"`
	HTTPTimeout       time.Duration `default:"30s"`
	GitHubURL         string        `default:"https://api.github.com"`
	GitLabURL         string        `default:"https://gitlab.com"`

	VaultBackend   string `default:"local"`
	VaultDir       string `default:".cimon/secrets"`
	VaultMasterKey string `default:""`
	VaultAddress   string `default:""`
	VaultToken     string `default:""`
	VaultNamespace string `default:""`
	VaultMount     string `default:"secret"`

	TargetsFile      string `default:""`
	NotifyFile       string `default:""`
	NotifyWebhookURL string `default:""`

	GitHubClientID   string `default:""`
	GitLabClientID   string `default:""`
	OAuthRedirectURL string `default:"http://localhost:8080/v1/auth/callback"`
}
