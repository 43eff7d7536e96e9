package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
)

// AuthError reports a rejected or expired credential (401/403).
type AuthError struct {
	Provider models.Provider
	Status   int
	Body     string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication failed (%d)", e.Provider, e.Status)
}

// RateLimitError reports a 429 from the provider.
type RateLimitError struct {
	Provider   models.Provider
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.Provider)
}

// NotFoundError reports a resource that no longer exists upstream.
type NotFoundError struct {
	Provider models.Provider
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s not found", e.Provider, e.Resource)
}

// TransportError wraps network-level failures.
type TransportError struct {
	Provider models.Provider
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProviderError is any other non-2xx response.
type ProviderError struct {
	Provider models.Provider
	Status   int
	Body     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.Status, e.Body)
}

// NoCredentialError reports that no active credential is stored for a provider.
type NoCredentialError struct {
	Provider models.Provider
}

func (e *NoCredentialError) Error() string {
	return fmt.Sprintf("%s: no active credential", e.Provider)
}

// UnsupportedOperationError reports an action the provider cannot perform.
type UnsupportedOperationError struct {
	Provider  models.Provider
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s: %s is not supported", e.Provider, e.Operation)
}

// Retryable reports whether err is a transient failure worth retrying.
func Retryable(err error) bool {
	var (
		rl *RateLimitError
		te *TransportError
	)
	return errors.As(err, &rl) || errors.As(err, &te)
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// NeedsReauth reports whether err requires the user to authenticate again.
func NeedsReauth(err error) bool {
	var (
		ae *AuthError
		nc *NoCredentialError
	)
	return errors.As(err, &ae) || errors.As(err, &nc)
}

// StatusError maps a non-2xx status to the typed error taxonomy. It returns nil
// for 2xx statuses.
func StatusError(p models.Provider, status int, header http.Header, body, resource string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		// GitHub signals exhausted primary quota with 403 and a zero remaining count
		if status == http.StatusForbidden && header.Get("X-RateLimit-Remaining") == "0" {
			return &RateLimitError{Provider: p, RetryAfter: retryAfter(header)}
		}
		return &AuthError{Provider: p, Status: status, Body: body}
	case status == http.StatusNotFound:
		return &NotFoundError{Provider: p, Resource: resource}
	case status == http.StatusTooManyRequests:
		return &RateLimitError{Provider: p, RetryAfter: retryAfter(header)}
	default:
		return &ProviderError{Provider: p, Status: status, Body: body}
	}
}

func retryAfter(header http.Header) time.Duration {
	if header == nil {
		return 0
	}
	if v := header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
		if at, err := http.ParseTime(v); err == nil {
			return time.Until(at)
		}
	}
	if v := header.Get("X-RateLimit-Reset"); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Until(time.Unix(epoch, 0))
		}
	}
	return 0
}
