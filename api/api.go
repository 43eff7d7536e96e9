package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/caesium-cloud/cimon/api/gql"
	"github.com/caesium-cloud/cimon/api/rest/bind"
	"github.com/caesium-cloud/cimon/pkg/env"
	"github.com/caesium-cloud/cimon/pkg/log"
	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
)

const shutdownTimeout = 10 * time.Second

// New builds cimon's HTTP server without starting it.
func New(deps bind.Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// health
	e.GET("/health", health(deps))

	// REST
	bind.All(e.Group("/v1"), deps)

	// GraphQL
	h := gql.Handler(deps.Cache)
	e.GET("/gql", h)
	e.POST("/gql", h)

	return e
}

// Start launches cimon's API and stops it when ctx is done.
func Start(ctx context.Context, deps bind.Dependencies) error {
	e := New(deps)

	// metrics
	prometheus.NewPrometheus("cimon", nil).Use(e)

	addr := fmt.Sprintf(":%v", env.Variables().Port)
	errs := make(chan error, 1)

	go func() {
		log.Info("api listening", "address", addr)
		errs <- e.Start(addr)
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return e.Shutdown(shutdownCtx)
	}
}
