package bind

import (
	"github.com/caesium-cloud/cimon/api/rest/controller/auth"
	"github.com/caesium-cloud/cimon/api/rest/controller/build"
	"github.com/caesium-cloud/cimon/api/rest/controller/event"
	"github.com/caesium-cloud/cimon/api/rest/controller/pipeline"
	"github.com/caesium-cloud/cimon/api/rest/controller/preferences"
	synccontroller "github.com/caesium-cloud/cimon/api/rest/controller/sync"
	"github.com/caesium-cloud/cimon/api/rest/controller/target"
	"github.com/caesium-cloud/cimon/internal/account"
	"github.com/caesium-cloud/cimon/internal/cache"
	"github.com/caesium-cloud/cimon/internal/credential"
	"github.com/caesium-cloud/cimon/internal/dispatch"
	bus "github.com/caesium-cloud/cimon/internal/event"
	"github.com/caesium-cloud/cimon/internal/syncer"
	"github.com/labstack/echo/v4"
)

// Dependencies are the services the REST controllers act on.
type Dependencies struct {
	Cache      *cache.Store
	Syncer     syncer.Syncer
	Phases     synccontroller.PhaseReader
	Dispatcher *dispatch.Dispatcher
	Accounts   *account.Service
	OAuth      *credential.OAuth
	Bus        bus.Bus
}

func All(g *echo.Group, deps Dependencies) {
	Pipelines(g, deps)
	Builds(g, deps)

	// sync
	{
		ctrl := synccontroller.New(deps.Syncer, deps.Phases)
		g.POST("/sync", ctrl.Post)
		g.GET("/sync", ctrl.Status)
	}

	Auth(g.Group("/auth"), deps)

	// targets
	{
		ctrl := target.New(deps.Cache)
		g.GET("/targets", ctrl.List)
		g.POST("/targets", ctrl.Post)
		g.DELETE("/targets/:id", ctrl.Delete)
	}

	// preferences
	{
		ctrl := preferences.New(deps.Cache)
		g.GET("/preferences", ctrl.Get)
		g.PUT("/preferences", ctrl.Put)
	}

	// events
	{
		b := deps.Bus
		if b == nil {
			b = bus.Discard
		}
		g.GET("/events", event.New(b).Stream)
	}
}

func Pipelines(g *echo.Group, deps Dependencies) {
	ctrl := pipeline.New(deps.Cache, deps.Dispatcher)

	g.GET("/pipelines", ctrl.List)
	g.GET("/pipelines/:id", ctrl.Get)
	g.GET("/pipelines/:id/builds", ctrl.Builds)
	g.POST("/pipelines/:id/trigger", ctrl.Trigger)
}

func Builds(g *echo.Group, deps Dependencies) {
	ctrl := build.New(deps.Cache, deps.Dispatcher)

	g.GET("/builds/:id", ctrl.Get)
	g.POST("/builds/:id/retry", ctrl.Retry)
	g.POST("/builds/:id/cancel", ctrl.Cancel)
	g.GET("/builds/:id/logs", ctrl.Logs)
}

func Auth(g *echo.Group, deps Dependencies) {
	ctrl := auth.New(deps.Accounts, deps.OAuth)

	g.GET("", ctrl.Status)
	g.POST("/:provider", ctrl.Login)
	g.DELETE("/:provider", ctrl.Logout)
	g.GET("/:provider/authorize", ctrl.Authorize)
}
