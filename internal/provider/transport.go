package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
	"golang.org/x/time/rate"
)

const maxErrorBody = 4 << 10

// Transport performs throttled HTTP calls for one provider and maps failures
// onto the typed error taxonomy.
type Transport struct {
	Provider models.Provider
	Client   *http.Client
	Limiter  *rate.Limiter
}

// NewTransport returns a Transport with the given timeout and request rate.
// A non-positive rps disables throttling.
func NewTransport(p models.Provider, timeout time.Duration, rps float64) *Transport {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
	return &Transport{
		Provider: p,
		Client:   &http.Client{Timeout: timeout},
		Limiter:  limiter,
	}
}

// Do sends req. Non-2xx responses are consumed and returned as typed errors;
// on success the caller owns the response body.
func (t *Transport) Do(req *http.Request, resource string) (*http.Response, error) {
	if t.Limiter != nil {
		if err := t.Limiter.Wait(req.Context()); err != nil {
			return nil, &TransportError{Provider: t.Provider, Err: err}
		}
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: t.Provider, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, StatusError(t.Provider, resp.StatusCode, resp.Header, strings.TrimSpace(string(body)), resource)
	}

	return resp, nil
}

// JSON sends req and decodes a JSON body into v when v is non-nil.
func (t *Transport) JSON(req *http.Request, resource string, v any) error {
	resp, err := t.Do(req, resource)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("%s: decode %s: %w", t.Provider, resource, err)
	}
	return nil
}

// Text sends req and returns the body as a string.
func (t *Transport) Text(req *http.Request, resource string) (string, error) {
	resp, err := t.Do(req, resource)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Provider: t.Provider, Err: err}
	}
	return string(body), nil
}

// NewRequest builds a request bound to ctx.
func NewRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
