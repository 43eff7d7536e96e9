// Package respond maps service errors onto HTTP errors for the REST
// controllers.
package respond

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/caesium-cloud/cimon/internal/cache"
	"github.com/caesium-cloud/cimon/internal/provider"
	"github.com/labstack/echo/v4"
)

// Error converts err into an *echo.HTTPError with the matching status.
func Error(c echo.Context, err error) error {
	var (
		auth        *provider.AuthError
		noCred      *provider.NoCredentialError
		notFound    *provider.NotFoundError
		limited     *provider.RateLimitError
		unsupported *provider.UnsupportedOperationError
		transport   *provider.TransportError
		upstream    *provider.ProviderError
	)

	switch {
	case errors.Is(err, cache.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error()).SetInternal(err)
	case errors.As(err, &noCred), errors.As(err, &auth):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error()).SetInternal(err)
	case errors.As(err, &notFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error()).SetInternal(err)
	case errors.As(err, &limited):
		if limited.RetryAfter > 0 {
			c.Response().Header().Set("Retry-After", strconv.Itoa(int(limited.RetryAfter.Seconds())))
		}
		return echo.NewHTTPError(http.StatusTooManyRequests, err.Error()).SetInternal(err)
	case errors.As(err, &unsupported):
		return echo.NewHTTPError(http.StatusNotImplemented, err.Error()).SetInternal(err)
	case errors.As(err, &transport), errors.As(err, &upstream):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error()).SetInternal(err)
	default:
		return echo.ErrInternalServerError.SetInternal(err)
	}
}

// BadRequest wraps err as a 400.
func BadRequest(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
}

// Param returns the unescaped path parameter name. Build ids may carry
// characters such as '#' and '/' that clients must escape.
func Param(c echo.Context, name string) (string, error) {
	raw := c.Param(name)
	value, err := url.PathUnescape(raw)
	if err != nil {
		return "", BadRequest(fmt.Errorf("invalid %s %q", name, raw))
	}
	if value == "" {
		return "", BadRequest(fmt.Errorf("%s is required", name))
	}
	return value, nil
}

// Int parses an optional non-negative integer query parameter.
func Int(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, BadRequest(fmt.Errorf("invalid %s %q", name, raw))
	}
	return n, nil
}
