package provider

import (
	"context"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/pkg/log"
)

// NewLoggingClient returns a Client that logs failed operations.
func NewLoggingClient(c Client) Client {
	return &loggingClient{c}
}

type loggingClient struct {
	Client
}

func (c *loggingClient) handle(op string, err error, kv ...interface{}) {
	if err == nil {
		return
	}
	kv = append([]interface{}{"provider", c.Provider(), "operation", op, "error", err}, kv...)
	if Retryable(err) {
		log.Warn("provider operation failed", kv...)
		return
	}
	log.Error("provider operation failed", kv...)
}

func (c *loggingClient) FetchPipelines(ctx context.Context, cred *Credential, targets models.Targets) (snap *Snapshot, err error) {
	defer func() { c.handle("FetchPipelines", err, "targets", len(targets)) }()

	return c.Client.FetchPipelines(ctx, cred, targets)
}

func (c *loggingClient) Trigger(ctx context.Context, cred *Credential, pipeline *models.Pipeline, opts TriggerOptions) (b *models.Build, err error) {
	defer func() { c.handle("Trigger", err, "pipeline_id", pipeline.ID) }()

	return c.Client.Trigger(ctx, cred, pipeline, opts)
}

func (c *loggingClient) Retry(ctx context.Context, cred *Credential, pipeline *models.Pipeline, build *models.Build) (b *models.Build, err error) {
	defer func() { c.handle("Retry", err, "build_id", build.ID) }()

	return c.Client.Retry(ctx, cred, pipeline, build)
}

func (c *loggingClient) Cancel(ctx context.Context, cred *Credential, pipeline *models.Pipeline, build *models.Build) (b *models.Build, err error) {
	defer func() { c.handle("Cancel", err, "build_id", build.ID) }()

	return c.Client.Cancel(ctx, cred, pipeline, build)
}

func (c *loggingClient) Logs(ctx context.Context, cred *Credential, pipeline *models.Pipeline, build *models.Build) (out string, err error) {
	defer func() { c.handle("Logs", err, "build_id", build.ID) }()

	return c.Client.Logs(ctx, cred, pipeline, build)
}

func (c *loggingClient) CurrentUser(ctx context.Context, cred *Credential) (u *models.User, err error) {
	defer func() { c.handle("CurrentUser", err) }()

	return c.Client.CurrentUser(ctx, cred)
}
