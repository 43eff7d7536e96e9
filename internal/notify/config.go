package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/caesium-cloud/cimon/pkg/env"
)

type Config struct {
	Transport string
	URL       string
	Headers   string
	FilePath  string
	Timeout   time.Duration
}

// ConfigFromEnvironment enables the console transport, plus the file and
// webhook transports when CIMON_NOTIFYFILE and CIMON_NOTIFYWEBHOOKURL are set.
func ConfigFromEnvironment() []Config {
	vars := env.Variables()

	cfgs := []Config{{Transport: "console"}}
	if vars.NotifyFile != "" {
		cfgs = append(cfgs, Config{Transport: "file", FilePath: vars.NotifyFile})
	}
	if vars.NotifyWebhookURL != "" {
		cfgs = append(cfgs, Config{Transport: "http", URL: vars.NotifyWebhookURL, Timeout: vars.HTTPTimeout})
	}
	return cfgs
}

// Build returns a transport fanning out to every configured transport, and
// the label used for its metrics.
func Build(cfgs ...Config) (Transport, string, error) {
	transports := make([]Transport, 0, len(cfgs))
	names := make([]string, 0, len(cfgs))

	for _, cfg := range cfgs {
		tr, err := BuildTransport(cfg)
		if err != nil {
			for _, built := range transports {
				_ = built.Close()
			}
			return nil, "", err
		}
		transports = append(transports, tr)
		names = append(names, strings.ToLower(strings.TrimSpace(cfg.Transport)))
	}

	if len(transports) == 1 {
		return transports[0], names[0], nil
	}
	return NewCompositeTransport(transports...), strings.Join(names, "+"), nil
}

func BuildTransport(cfg Config) (Transport, error) {
	transportType := strings.ToLower(strings.TrimSpace(cfg.Transport))

	switch transportType {
	case "http":
		url := strings.TrimSpace(cfg.URL)
		if url == "" {
			return nil, fmt.Errorf("notify: CIMON_NOTIFYWEBHOOKURL is required for HTTP transport")
		}
		return NewHTTPTransport(HTTPTransportConfig{
			URL:     url,
			Headers: parseHeaders(cfg.Headers),
			Timeout: cfg.Timeout,
		}), nil

	case "console":
		return NewConsoleTransport(), nil

	case "file":
		if strings.TrimSpace(cfg.FilePath) == "" {
			return nil, fmt.Errorf("notify: CIMON_NOTIFYFILE is required for file transport")
		}
		return NewFileTransport(cfg.FilePath)

	default:
		return nil, fmt.Errorf("notify: unsupported transport type %q", transportType)
	}
}

func parseHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	if raw == "" {
		return headers
	}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) == 2 {
			headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return headers
}
