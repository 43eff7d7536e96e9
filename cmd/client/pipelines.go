package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/caesium-cloud/cimon/api/rest/controller/pipeline"
	"github.com/caesium-cloud/cimon/internal/models"
)

// PipelineDetail is a pipeline with its newest build.
type PipelineDetail struct {
	*models.Pipeline
	LatestBuild *models.Build `json:"latest_build,omitempty"`
}

// Pipelines lists cached pipelines, optionally for one provider.
func (c *Client) Pipelines(ctx context.Context, provider string, limit int) (models.Pipelines, error) {
	params := url.Values{}
	if provider != "" {
		params.Set("provider", provider)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var payload models.Pipelines
	if err := c.do(ctx, http.MethodGet, c.resolve("/v1/pipelines", params.Encode()), nil, &payload); err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	return payload, nil
}

// Pipeline fetches one pipeline.
func (c *Client) Pipeline(ctx context.Context, id string) (*PipelineDetail, error) {
	payload := new(PipelineDetail)
	if err := c.do(ctx, http.MethodGet, c.resolve("/v1/pipelines/"+escape(id)), nil, payload); err != nil {
		return nil, fmt.Errorf("get pipeline: %w", err)
	}
	return payload, nil
}

// Builds lists the most recent builds of a pipeline.
func (c *Client) Builds(ctx context.Context, pipelineID string, limit int) (models.Builds, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var payload models.Builds
	endpoint := c.resolve("/v1/pipelines/"+escape(pipelineID)+"/builds", params.Encode())
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	return payload, nil
}

// Trigger starts a run of a pipeline. The returned build has an empty id
// when the provider has not exposed the run yet.
func (c *Client) Trigger(ctx context.Context, pipelineID, branch string, inputs map[string]string) (*models.Build, error) {
	req := &pipeline.TriggerRequest{Branch: branch, Inputs: inputs}

	payload := new(models.Build)
	endpoint := c.resolve("/v1/pipelines/" + escape(pipelineID) + "/trigger")
	if err := c.do(ctx, http.MethodPost, endpoint, req, payload); err != nil {
		return nil, fmt.Errorf("trigger pipeline: %w", err)
	}
	return payload, nil
}

// Retry re-runs a build.
func (c *Client) Retry(ctx context.Context, buildID string) (*models.Build, error) {
	payload := new(models.Build)
	if err := c.do(ctx, http.MethodPost, c.resolve("/v1/builds/"+escape(buildID)+"/retry"), nil, payload); err != nil {
		return nil, fmt.Errorf("retry build: %w", err)
	}
	return payload, nil
}

// Cancel stops a running build.
func (c *Client) Cancel(ctx context.Context, buildID string) error {
	if err := c.do(ctx, http.MethodPost, c.resolve("/v1/builds/"+escape(buildID)+"/cancel"), nil, nil); err != nil {
		return fmt.Errorf("cancel build: %w", err)
	}
	return nil
}

// Logs copies the log of a build to w.
func (c *Client) Logs(ctx context.Context, buildID string, w io.Writer) error {
	resp, err := c.send(ctx, http.MethodGet, c.resolve("/v1/builds/"+escape(buildID)+"/logs"), nil)
	if err != nil {
		return fmt.Errorf("build logs: %w", err)
	}
	defer resp.Body.Close()

	_, err = io.Copy(w, resp.Body)
	return err
}
