// Package gql serves read-only GraphQL queries over the pipeline cache.
package gql

import (
	"time"

	"github.com/caesium-cloud/cimon/api/gql/schema"
	"github.com/caesium-cloud/cimon/internal/cache"
	"github.com/caesium-cloud/cimon/pkg/log"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// New compiles the schema and returns its HTTP handler.
func New(store *cache.Store) (*handler.Handler, error) {
	s, err := graphql.NewSchema(schema.New(store))
	if err != nil {
		return nil, errors.Wrap(err, "invalid graphql schema")
	}

	return handler.New(&handler.Config{
		Schema:   &s,
		Pretty:   true,
		GraphiQL: true,
	}), nil
}

// Handler mounts the GraphQL endpoint into echo. The schema is static, so a
// compile failure is a programming error and panics.
func Handler(store *cache.Store) echo.HandlerFunc {
	h, err := New(store)
	if err != nil {
		panic(err)
	}

	wrapped := echo.WrapHandler(h)
	return func(c echo.Context) error {
		start := time.Now()
		err := wrapped(c)
		log.Debug("graphql request served", "method", c.Request().Method, "duration", time.Since(start))
		return err
	}
}
