package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider"
	"golang.org/x/oauth2"
)

// DefaultServerURL is gitlab.com.
const DefaultServerURL = "https://gitlab.com"

// DefaultPerPage matches the page size of the pipelines listing.
const DefaultPerPage = 20

// Client talks to the GitLab v4 REST API.
type Client struct {
	baseURL   string
	transport *provider.Transport
}

// New builds a client for a GitLab server; the API root is {serverURL}/api/v4/.
func New(serverURL string, transport *provider.Transport) *Client {
	if transport == nil {
		transport = provider.NewTransport(models.ProviderGitLab, 0, 0)
	}
	return &Client{baseURL: APIBase(serverURL), transport: transport}
}

// APIBase returns the v4 API root for a server URL.
func APIBase(serverURL string) string {
	serverURL = strings.TrimRight(strings.TrimSpace(serverURL), "/")
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	serverURL = strings.TrimSuffix(serverURL, "/api/v4")
	return serverURL + "/api/v4/"
}

// PipelineQuery filters the project pipelines listing.
type PipelineQuery struct {
	Ref           string
	Status        string
	Scope         string
	Username      string
	UpdatedAfter  *time.Time
	UpdatedBefore *time.Time
	Page          int
	PerPage       int
}

func (q PipelineQuery) values() url.Values {
	v := url.Values{}
	if q.Ref != "" {
		v.Set("ref", q.Ref)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Scope != "" {
		v.Set("scope", q.Scope)
	}
	if q.Username != "" {
		v.Set("username", q.Username)
	}
	if q.UpdatedAfter != nil {
		v.Set("updated_after", q.UpdatedAfter.UTC().Format(time.RFC3339))
	}
	if q.UpdatedBefore != nil {
		v.Set("updated_before", q.UpdatedBefore.UTC().Format(time.RFC3339))
	}
	v.Set("order_by", "updated_at")
	v.Set("sort", "desc")
	perPage := q.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	v.Set("per_page", strconv.Itoa(perPage))
	page := q.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	return v
}

// ProjectID escapes a numeric id or namespaced path for use in a URL.
func ProjectID(project string) string {
	return url.PathEscape(strings.Trim(project, "/"))
}

// GetProject fetches a project by id or full path.
func (c *Client) GetProject(ctx context.Context, cred *provider.Credential, project string) (*Project, error) {
	var out Project
	if err := c.do(ctx, cred, http.MethodGet, "projects/"+ProjectID(project), "project "+project, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPipelines returns pipelines of a project, most recently updated first.
func (c *Client) ListPipelines(ctx context.Context, cred *provider.Credential, project string, q PipelineQuery) ([]Pipeline, error) {
	var out []Pipeline
	path := fmt.Sprintf("projects/%s/pipelines?%s", ProjectID(project), q.values().Encode())
	if err := c.do(ctx, cred, http.MethodGet, path, "pipelines of "+project, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListJobs returns the jobs of a pipeline.
func (c *Client) ListJobs(ctx context.Context, cred *provider.Credential, project string, pipelineID int64, scope []string, includeRetried bool) ([]Job, error) {
	v := url.Values{}
	for _, s := range scope {
		v.Add("scope[]", s)
	}
	if includeRetried {
		v.Set("include_retried", "true")
	}
	path := fmt.Sprintf("projects/%s/pipelines/%d/jobs", ProjectID(project), pipelineID)
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	var out []Job
	if err := c.do(ctx, cred, http.MethodGet, path, fmt.Sprintf("jobs of pipeline %d", pipelineID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePipeline starts a new pipeline on ref.
func (c *Client) CreatePipeline(ctx context.Context, cred *provider.Credential, project, ref string) (*Pipeline, error) {
	var out Pipeline
	path := fmt.Sprintf("projects/%s/pipeline?ref=%s", ProjectID(project), url.QueryEscape(ref))
	if err := c.do(ctx, cred, http.MethodPost, path, "project "+project, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RetryPipeline retries the failed jobs of a pipeline.
func (c *Client) RetryPipeline(ctx context.Context, cred *provider.Credential, project string, pipelineID int64) (*Pipeline, error) {
	var out Pipeline
	path := fmt.Sprintf("projects/%s/pipelines/%d/retry", ProjectID(project), pipelineID)
	if err := c.do(ctx, cred, http.MethodPost, path, fmt.Sprintf("pipeline %d", pipelineID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelPipeline cancels the running jobs of a pipeline.
func (c *Client) CancelPipeline(ctx context.Context, cred *provider.Credential, project string, pipelineID int64) (*Pipeline, error) {
	var out Pipeline
	path := fmt.Sprintf("projects/%s/pipelines/%d/cancel", ProjectID(project), pipelineID)
	if err := c.do(ctx, cred, http.MethodPost, path, fmt.Sprintf("pipeline %d", pipelineID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RetryJob retries a job and returns the new job.
func (c *Client) RetryJob(ctx context.Context, cred *provider.Credential, project string, jobID int64) (*Job, error) {
	var out Job
	path := fmt.Sprintf("projects/%s/jobs/%d/retry", ProjectID(project), jobID)
	if err := c.do(ctx, cred, http.MethodPost, path, fmt.Sprintf("job %d", jobID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelJob cancels a job and returns its updated state.
func (c *Client) CancelJob(ctx context.Context, cred *provider.Credential, project string, jobID int64) (*Job, error) {
	var out Job
	path := fmt.Sprintf("projects/%s/jobs/%d/cancel", ProjectID(project), jobID)
	if err := c.do(ctx, cred, http.MethodPost, path, fmt.Sprintf("job %d", jobID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// JobTrace returns the raw log of a job.
func (c *Client) JobTrace(ctx context.Context, cred *provider.Credential, project string, jobID int64) (string, error) {
	req, err := c.request(ctx, cred, http.MethodGet, fmt.Sprintf("projects/%s/jobs/%d/trace", ProjectID(project), jobID))
	if err != nil {
		return "", err
	}
	return c.transport.Text(req, fmt.Sprintf("trace of job %d", jobID))
}

// CurrentUser returns the account owning the credential.
func (c *Client) CurrentUser(ctx context.Context, cred *provider.Credential) (*User, error) {
	var out User
	if err := c.do(ctx, cred, http.MethodGet, "user", "user", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, cred *provider.Credential, method, path, resource string, v any) error {
	req, err := c.request(ctx, cred, method, path)
	if err != nil {
		return err
	}
	return c.transport.JSON(req, resource, v)
}

func (c *Client) request(ctx context.Context, cred *provider.Credential, method, path string) (*http.Request, error) {
	req, err := provider.NewRequest(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if cred != nil {
		(&oauth2.Token{AccessToken: cred.AccessToken, TokenType: "Bearer"}).SetAuthHeader(req)
	}
	return req, nil
}
