package client

import (
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	envServer = "CIMON_SERVER"
	envHost   = "CIMON_HOST"
)

// Config captures runtime configuration for the CLI client.
type Config struct {
	BaseURL     *url.URL
	HTTPTimeout time.Duration
}

// Load reads configuration values from the environment and
// applies defaults if values are not provided. A non-empty server
// overrides the environment.
func Load(server string) (*Config, error) {
	baseURL := strings.TrimSpace(server)
	if baseURL == "" {
		baseURL = os.Getenv(envServer)
	}

	if baseURL == "" {
		host := strings.TrimSpace(os.Getenv(envHost))
		if host == "" {
			baseURL = "http://127.0.0.1:8080"
		} else {
			if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
				baseURL = host
			} else {
				baseURL = "http://" + host
			}

			if !strings.Contains(baseURL[strings.Index(baseURL, "://")+3:], ":") {
				baseURL = strings.TrimRight(baseURL, "/") + ":8080"
			}
		}
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	// syncs fan out to every provider and may retry
	return &Config{BaseURL: u, HTTPTimeout: 2 * time.Minute}, nil
}
