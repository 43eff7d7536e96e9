package notify

import (
	"context"

	"github.com/caesium-cloud/cimon/pkg/log"
)

type consoleTransport struct{}

func NewConsoleTransport() Transport {
	return &consoleTransport{}
}

func (t *consoleTransport) Emit(_ context.Context, n Notification) error {
	log.Info(n.Title,
		"kind", string(n.Kind),
		"provider", n.Provider,
		"build_id", n.BuildID,
		"status", n.Status,
		"message", n.Message,
	)
	return nil
}

func (t *consoleTransport) Close() error { return nil }
