package provider

import (
	"context"
	"time"

	"github.com/caesium-cloud/cimon/internal/metrics"
	"github.com/caesium-cloud/cimon/internal/models"
)

// NewMetricsClient returns a Client that records request counts and latency.
func NewMetricsClient(c Client) Client {
	return &metricsClient{c}
}

type metricsClient struct {
	Client
}

func (c *metricsClient) observe(op string, begin time.Time, err error) {
	p := string(c.Provider())
	metrics.ProviderRequestsTotal.WithLabelValues(p, op, metrics.Outcome(err)).Inc()
	metrics.ProviderRequestDurationSeconds.WithLabelValues(p, op).Observe(time.Since(begin).Seconds())
}

func (c *metricsClient) FetchPipelines(ctx context.Context, cred *Credential, targets models.Targets) (snap *Snapshot, err error) {
	defer func(begin time.Time) { c.observe("FetchPipelines", begin, err) }(time.Now())

	return c.Client.FetchPipelines(ctx, cred, targets)
}

func (c *metricsClient) Trigger(ctx context.Context, cred *Credential, pipeline *models.Pipeline, opts TriggerOptions) (b *models.Build, err error) {
	defer func(begin time.Time) { c.observe("Trigger", begin, err) }(time.Now())

	return c.Client.Trigger(ctx, cred, pipeline, opts)
}

func (c *metricsClient) Retry(ctx context.Context, cred *Credential, pipeline *models.Pipeline, build *models.Build) (b *models.Build, err error) {
	defer func(begin time.Time) { c.observe("Retry", begin, err) }(time.Now())

	return c.Client.Retry(ctx, cred, pipeline, build)
}

func (c *metricsClient) Cancel(ctx context.Context, cred *Credential, pipeline *models.Pipeline, build *models.Build) (b *models.Build, err error) {
	defer func(begin time.Time) { c.observe("Cancel", begin, err) }(time.Now())

	return c.Client.Cancel(ctx, cred, pipeline, build)
}

func (c *metricsClient) Logs(ctx context.Context, cred *Credential, pipeline *models.Pipeline, build *models.Build) (out string, err error) {
	defer func(begin time.Time) { c.observe("Logs", begin, err) }(time.Now())

	return c.Client.Logs(ctx, cred, pipeline, build)
}

func (c *metricsClient) CurrentUser(ctx context.Context, cred *Credential) (u *models.User, err error) {
	defer func(begin time.Time) { c.observe("CurrentUser", begin, err) }(time.Now())

	return c.Client.CurrentUser(ctx, cred)
}
