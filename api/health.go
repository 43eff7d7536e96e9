package api

import (
	"net/http"
	"time"

	"github.com/caesium-cloud/cimon/api/rest/bind"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/syncer"
	"github.com/caesium-cloud/cimon/pkg/log"
	"github.com/labstack/echo/v4"
)

var startedAt = time.Now()

// HealthResponse defines the data the health endpoint returns.
type HealthResponse struct {
	Status    Status                          `json:"status"`
	Uptime    time.Duration                   `json:"uptime"`
	Database  string                          `json:"database"`
	Providers map[models.Provider]syncer.Phase `json:"providers,omitempty"`
}

// Status enumerates the health states of cimon.
type Status string

const (
	// Healthy means the cache is reachable.
	Healthy Status = "healthy"
	// Degraded means the API is up but the cache is not.
	Degraded Status = "degraded"
)

// health reports uptime, cache reachability and the current sync phase of
// each provider. An unreachable cache answers 503.
func health(deps bind.Dependencies) echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := HealthResponse{
			Status:   Healthy,
			Uptime:   time.Since(startedAt),
			Database: "ok",
		}
		if deps.Phases != nil {
			resp.Providers = deps.Phases.Phases()
		}

		code := http.StatusOK
		if err := ping(c, deps); err != nil {
			log.Warn("health check failed", "error", err)
			resp.Status, resp.Database, code = Degraded, err.Error(), http.StatusServiceUnavailable
		}

		return c.JSON(code, resp)
	}
}

func ping(c echo.Context, deps bind.Dependencies) error {
	if deps.Cache == nil {
		return nil
	}
	sqlDB, err := deps.Cache.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(c.Request().Context())
}
