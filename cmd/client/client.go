package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client wraps HTTP interaction with the cimon REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// New constructs a client from the provided configuration.
func New(cfg *Config) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("request failed: %d %s", e.Status, e.Message)
}

// escape encodes a record id as a single path segment.
func escape(id string) string {
	return url.PathEscape(id)
}

func (c *Client) resolve(path string, queries ...string) string {
	raw := strings.TrimSuffix(c.baseURL.String(), "/") + path
	filtered := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.Trim(q, "?& ")
		if q != "" {
			filtered = append(filtered, q)
		}
	}

	if len(filtered) == 0 {
		return raw
	}

	return raw + "?" + strings.Join(filtered, "&")
}

func decodeBody(body io.ReadCloser, target any) error {
	decodeErr := json.NewDecoder(body).Decode(target)
	closeErr := body.Close()
	if decodeErr != nil {
		if closeErr != nil {
			return errors.Join(decodeErr, closeErr)
		}
		return decodeErr
	}
	return closeErr
}

func apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	var payload struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &payload) == nil && payload.Message != "" {
		msg = payload.Message
	}

	return &APIError{Status: resp.StatusCode, Message: msg}
}

func (c *Client) send(ctx context.Context, method, endpoint string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, apiError(resp)
	}

	return resp, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	resp, err := c.send(ctx, method, endpoint, in)
	if err != nil {
		return err
	}

	if out == nil {
		return resp.Body.Close()
	}

	return decodeBody(resp.Body, out)
}

type healthResponse struct {
	Status string `json:"status"`
}

// Ping verifies the API health endpoint responds with a healthy status.
func (c *Client) Ping(ctx context.Context) error {
	var payload healthResponse
	if err := c.do(ctx, http.MethodGet, c.resolve("/health"), nil, &payload); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if strings.ToLower(strings.TrimSpace(payload.Status)) != "healthy" {
		return fmt.Errorf("health check failed: status=%q", payload.Status)
	}

	return nil
}
