package respond

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caesium-cloud/cimon/internal/cache"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorStatus(t *testing.T) {
	gh := models.ProviderGitHub
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("build x: %w", cache.ErrNotFound), http.StatusNotFound},
		{&provider.NoCredentialError{Provider: gh}, http.StatusUnauthorized},
		{&provider.AuthError{Provider: gh, Status: 403}, http.StatusUnauthorized},
		{&provider.NotFoundError{Provider: gh, Resource: "run"}, http.StatusNotFound},
		{&provider.RateLimitError{Provider: gh}, http.StatusTooManyRequests},
		{&provider.UnsupportedOperationError{Provider: models.ProviderJenkins, Operation: "cancel"}, http.StatusNotImplemented},
		{&provider.TransportError{Provider: gh, Err: errors.New("reset")}, http.StatusBadGateway},
		{&provider.ProviderError{Provider: gh, Status: 500}, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	e := echo.New()
	for _, tc := range cases {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

		var httpErr *echo.HTTPError
		require.ErrorAs(t, Error(c, tc.err), &httpErr, tc.err.Error())
		assert.Equal(t, tc.code, httpErr.Code, tc.err.Error())
	}
}

func TestRetryAfterHeader(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	_ = Error(c, &provider.RateLimitError{Provider: models.ProviderGitLab, RetryAfter: 90 * time.Second})
	assert.Equal(t, "90", rec.Header().Get("Retry-After"))
}

func TestInt(t *testing.T) {
	e := echo.New()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?limit=7", nil), httptest.NewRecorder())
	n, err := Int(c, "limit")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = Int(c, "offset")
	require.NoError(t, err)
	assert.Zero(t, n)

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/?limit=ten", nil), httptest.NewRecorder())
	_, err = Int(c, "limit")
	assert.Error(t, err)
}
