package github

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the public GitHub REST endpoint.
const DefaultBaseURL = "https://api.github.com"

// DefaultPerPage is the page size used when none is requested.
const DefaultPerPage = 30

// Client talks to the GitHub Actions REST API.
type Client struct {
	baseURL   string
	transport *provider.Transport
}

// New builds a client for baseURL (DefaultBaseURL when empty).
func New(baseURL string, transport *provider.Transport) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if transport == nil {
		transport = provider.NewTransport(models.ProviderGitHub, 0, 0)
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), transport: transport}
}

// RunQuery filters the workflow runs listing.
type RunQuery struct {
	Branch  string
	Event   string
	Page    int
	PerPage int
}

func (q RunQuery) values() url.Values {
	v := url.Values{}
	page, perPage := q.Page, q.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("per_page", strconv.Itoa(perPage))
	if q.Branch != "" {
		v.Set("branch", q.Branch)
	}
	if q.Event != "" {
		v.Set("event", q.Event)
	}
	return v
}

// ListWorkflows returns every workflow defined in owner/repo.
func (c *Client) ListWorkflows(ctx context.Context, cred *provider.Credential, owner, repo string) ([]Workflow, error) {
	var out workflowsResponse
	path := fmt.Sprintf("/repos/%s/%s/actions/workflows?per_page=100", owner, repo)
	if err := c.get(ctx, cred, path, "workflows of "+owner+"/"+repo, &out); err != nil {
		return nil, err
	}
	return out.Workflows, nil
}

// ListRuns returns one page of runs for owner/repo.
func (c *Client) ListRuns(ctx context.Context, cred *provider.Credential, owner, repo string, q RunQuery) (*RunsPage, error) {
	var out RunsPage
	path := fmt.Sprintf("/repos/%s/%s/actions/runs?%s", owner, repo, q.values().Encode())
	if err := c.get(ctx, cred, path, "runs of "+owner+"/"+repo, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListWorkflowRuns returns one page of runs for a single workflow.
func (c *Client) ListWorkflowRuns(ctx context.Context, cred *provider.Credential, owner, repo string, workflowID int64, q RunQuery) (*RunsPage, error) {
	var out RunsPage
	path := fmt.Sprintf("/repos/%s/%s/actions/workflows/%d/runs?%s", owner, repo, workflowID, q.values().Encode())
	if err := c.get(ctx, cred, path, fmt.Sprintf("runs of workflow %d", workflowID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRun fetches a single run.
func (c *Client) GetRun(ctx context.Context, cred *provider.Credential, owner, repo string, runID int64) (*Run, error) {
	var out Run
	path := fmt.Sprintf("/repos/%s/%s/actions/runs/%d", owner, repo, runID)
	if err := c.get(ctx, cred, path, fmt.Sprintf("run %d", runID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DispatchWorkflow fires a workflow_dispatch event on ref.
func (c *Client) DispatchWorkflow(ctx context.Context, cred *provider.Credential, owner, repo string, workflowID int64, body DispatchRequest) error {
	path := fmt.Sprintf("/repos/%s/%s/actions/workflows/%d/dispatches", owner, repo, workflowID)
	return c.post(ctx, cred, path, fmt.Sprintf("workflow %d", workflowID), body)
}

// RerunRun re-runs every job of a run.
func (c *Client) RerunRun(ctx context.Context, cred *provider.Credential, owner, repo string, runID int64) error {
	path := fmt.Sprintf("/repos/%s/%s/actions/runs/%d/rerun", owner, repo, runID)
	return c.post(ctx, cred, path, fmt.Sprintf("run %d", runID), nil)
}

// CancelRun cancels an in-progress run.
func (c *Client) CancelRun(ctx context.Context, cred *provider.Credential, owner, repo string, runID int64) error {
	path := fmt.Sprintf("/repos/%s/%s/actions/runs/%d/cancel", owner, repo, runID)
	return c.post(ctx, cred, path, fmt.Sprintf("run %d", runID), nil)
}

// RunLogs downloads the log archive of a run and flattens it to text, one
// section per file in name order.
func (c *Client) RunLogs(ctx context.Context, cred *provider.Credential, owner, repo string, runID int64) (string, error) {
	path := fmt.Sprintf("/repos/%s/%s/actions/runs/%d/logs", owner, repo, runID)
	req, err := c.request(ctx, cred, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.transport.Do(req, fmt.Sprintf("logs of run %d", runID))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &provider.TransportError{Provider: models.ProviderGitHub, Err: err}
	}

	return flattenArchive(data)
}

// CurrentUser returns the account owning the credential.
func (c *Client) CurrentUser(ctx context.Context, cred *provider.Credential) (*User, error) {
	var out User
	if err := c.get(ctx, cred, "/user", "user", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, cred *provider.Credential, path, resource string, v any) error {
	req, err := c.request(ctx, cred, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.transport.JSON(req, resource, v)
}

func (c *Client) post(ctx context.Context, cred *provider.Credential, path, resource string, body any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.request(ctx, cred, http.MethodPost, path, reader)
	if err != nil {
		return err
	}
	return c.transport.JSON(req, resource, nil)
}

func (c *Client) request(ctx context.Context, cred *provider.Credential, method, path string, body io.Reader) (*http.Request, error) {
	req, err := provider.NewRequest(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if cred != nil {
		(&oauth2.Token{AccessToken: cred.AccessToken, TokenType: "Bearer"}).SetAuthHeader(req)
	}
	return req, nil
}

func flattenArchive(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		// some proxies hand back plain text
		return string(data), nil
	}

	files := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	var b strings.Builder
	for _, f := range files {
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read %s: %w", f.Name, err)
		}
		fmt.Fprintf(&b, "==> %s <==\n", f.Name)
		b.Write(content)
		if len(content) > 0 && content[len(content)-1] != '\n' {
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}
