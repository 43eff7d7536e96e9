package jenkins

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider"
)

const (
	jobsTree  = "jobs[name,url,color,buildable,lastBuild[number,url,building,result,timestamp,duration],lastCompletedBuild[number,url,result,timestamp],lastSuccessfulBuild[number,url,timestamp],lastFailedBuild[number,url,timestamp]]"
	jobTree   = "name,url,color,buildable,description,displayName,fullDisplayName,lastBuild[*],lastCompletedBuild[*],lastSuccessfulBuild[*],lastFailedBuild[*],builds[number,url,building,result,timestamp,duration]"
	queueTree = "items[id,inQueueSince,params,stuck,task[name,url,color],why,buildableStartMilliseconds,pending]"
	buildTree = "*"
)

// Client talks to a Jenkins server. The server URL travels with each
// credential, so one client serves any number of servers.
type Client struct {
	transport *provider.Transport
}

// New builds a Jenkins client.
func New(transport *provider.Transport) *Client {
	if transport == nil {
		transport = provider.NewTransport(models.ProviderJenkins, 0, 0)
	}
	return &Client{transport: transport}
}

// JobPath converts a possibly nested job name ("folder/app") into its URL
// path ("job/folder/job/app").
func JobPath(name string) string {
	parts := strings.Split(strings.Trim(name, "/"), "/")
	var sb strings.Builder
	for i, p := range parts {
		if i > 0 {
			sb.WriteByte('/')
		}
		sb.WriteString("job/")
		sb.WriteString(url.PathEscape(p))
	}
	return sb.String()
}

// ListJobs returns the jobs of a folder, or of the server root when folder
// is empty. FullName is filled in from the folder.
func (c *Client) ListJobs(ctx context.Context, cred *provider.Credential, folder string) ([]Job, error) {
	path := "api/json?tree=" + url.QueryEscape(jobsTree)
	folder = strings.Trim(folder, "/")
	if folder != "" {
		path = JobPath(folder) + "/" + path
	}

	var out jobsResponse
	if err := c.get(ctx, cred, path, "jobs", &out); err != nil {
		return nil, err
	}
	for i := range out.Jobs {
		if out.Jobs[i].FullName == "" {
			out.Jobs[i].FullName = out.Jobs[i].Name
			if folder != "" {
				out.Jobs[i].FullName = folder + "/" + out.Jobs[i].Name
			}
		}
	}
	return out.Jobs, nil
}

// GetJob returns a job with its recent builds.
func (c *Client) GetJob(ctx context.Context, cred *provider.Credential, name string) (*Job, error) {
	var out Job
	path := JobPath(name) + "/api/json?tree=" + url.QueryEscape(jobTree)
	if err := c.get(ctx, cred, path, "job "+name, &out); err != nil {
		return nil, err
	}
	if out.FullName == "" {
		out.FullName = name
	}
	return &out, nil
}

// GetBuild returns one build of a job.
func (c *Client) GetBuild(ctx context.Context, cred *provider.Credential, name string, number int) (*Build, error) {
	var out Build
	path := fmt.Sprintf("%s/%d/api/json?tree=%s", JobPath(name), number, url.QueryEscape(buildTree))
	if err := c.get(ctx, cred, path, fmt.Sprintf("build %s#%d", name, number), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LastBuild returns the most recent build of a job.
func (c *Client) LastBuild(ctx context.Context, cred *provider.Credential, name string) (*Build, error) {
	var out Build
	path := JobPath(name) + "/lastBuild/api/json?tree=" + url.QueryEscape(buildTree)
	if err := c.get(ctx, cred, path, "last build of "+name, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Build schedules a job run. With parameters the buildWithParameters
// endpoint is used. The returned string is the queue item location, which
// may be empty on servers that do not report it.
func (c *Client) Build(ctx context.Context, cred *provider.Credential, name string, params map[string]string) (string, error) {
	path := JobPath(name) + "/build"
	if len(params) > 0 {
		v := url.Values{}
		for k, val := range params {
			v.Set(k, val)
		}
		path = JobPath(name) + "/buildWithParameters?" + v.Encode()
	}

	resp, err := c.post(ctx, cred, path, "job "+name)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return resp.Header.Get("Location"), nil
}

// Stop aborts a running build.
func (c *Client) Stop(ctx context.Context, cred *provider.Credential, name string, number int) error {
	resp, err := c.post(ctx, cred, fmt.Sprintf("%s/%d/stop", JobPath(name), number), fmt.Sprintf("build %s#%d", name, number))
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// ConsoleText returns the plain console output of a build.
func (c *Client) ConsoleText(ctx context.Context, cred *provider.Credential, name string, number int) (string, error) {
	req, err := c.request(ctx, cred, http.MethodGet, fmt.Sprintf("%s/%d/consoleText", JobPath(name), number))
	if err != nil {
		return "", err
	}
	return c.transport.Text(req, fmt.Sprintf("console of %s#%d", name, number))
}

// Queue returns the items waiting for an executor.
func (c *Client) Queue(ctx context.Context, cred *provider.Credential) ([]QueueItem, error) {
	var out queueResponse
	if err := c.get(ctx, cred, "queue/api/json?tree="+url.QueryEscape(queueTree), "queue", &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// QueueItem resolves a queue location returned by Build. The location must
// point at the credential's server, relative locations are resolved against it.
func (c *Client) QueueItem(ctx context.Context, cred *provider.Credential, location string) (*QueueItem, error) {
	base, err := BaseURL(cred)
	if err != nil {
		return nil, err
	}
	server, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("jenkins: parse server url: %w", err)
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("jenkins: parse queue location: %w", err)
	}
	if u.Path == "" {
		return nil, fmt.Errorf("jenkins: empty queue location")
	}
	u = server.ResolveReference(u)
	if !strings.EqualFold(u.Scheme, server.Scheme) || !strings.EqualFold(u.Host, server.Host) {
		return nil, fmt.Errorf("jenkins: queue location %s is not on %s", u.Redacted(), server.Host)
	}

	req, err := provider.NewRequest(ctx, http.MethodGet, strings.TrimRight(u.String(), "/")+"/api/json", nil)
	if err != nil {
		return nil, err
	}
	authorize(req, cred)

	var out QueueItem
	if err := c.transport.JSON(req, "queue item", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context, cred *provider.Credential) (*CurrentUser, error) {
	var out CurrentUser
	if err := c.get(ctx, cred, "me/api/json", "user", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Crumb fetches a CSRF crumb. Servers with CSRF protection disabled answer
// 404, which is reported as a nil crumb.
func (c *Client) Crumb(ctx context.Context, cred *provider.Credential) (*Crumb, error) {
	var out Crumb
	err := c.get(ctx, cred, "crumbIssuer/api/json", "crumb issuer", &out)
	if provider.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, cred *provider.Credential, path, resource string, v any) error {
	req, err := c.request(ctx, cred, http.MethodGet, path)
	if err != nil {
		return err
	}
	return c.transport.JSON(req, resource, v)
}

func (c *Client) post(ctx context.Context, cred *provider.Credential, path, resource string) (*http.Response, error) {
	crumb, err := c.Crumb(ctx, cred)
	if err != nil {
		return nil, err
	}

	req, err := c.request(ctx, cred, http.MethodPost, path)
	if err != nil {
		return nil, err
	}
	if crumb != nil && crumb.CrumbRequestField != "" {
		req.Header.Set(crumb.CrumbRequestField, crumb.Crumb)
	}
	return c.transport.Do(req, resource)
}

func (c *Client) request(ctx context.Context, cred *provider.Credential, method, path string) (*http.Request, error) {
	base, err := BaseURL(cred)
	if err != nil {
		return nil, err
	}
	req, err := provider.NewRequest(ctx, method, base+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	authorize(req, cred)
	return req, nil
}

// BaseURL returns the server root of a credential with a trailing slash.
func BaseURL(cred *provider.Credential) (string, error) {
	if cred == nil || strings.TrimSpace(cred.ServerURL) == "" {
		return "", &provider.AuthError{Provider: models.ProviderJenkins, Body: "credential has no server url"}
	}
	return strings.TrimRight(strings.TrimSpace(cred.ServerURL), "/") + "/", nil
}

func authorize(req *http.Request, cred *provider.Credential) {
	if cred != nil && cred.Username != "" {
		req.SetBasicAuth(cred.Username, cred.AccessToken)
	}
}

// ParseBuildNumber extracts n from a "job#n" native build id.
func ParseBuildNumber(native string) (string, int, error) {
	i := strings.LastIndex(native, "#")
	if i <= 0 {
		return "", 0, fmt.Errorf("jenkins: malformed build id %q", native)
	}
	job, num := native[:i], native[i+1:]
	n, err := strconv.Atoi(num)
	if err != nil {
		return "", 0, fmt.Errorf("jenkins: malformed build number %q: %w", num, err)
	}
	return job, n, nil
}
