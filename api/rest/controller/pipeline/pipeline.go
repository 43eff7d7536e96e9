package pipeline

import (
	"github.com/caesium-cloud/cimon/internal/cache"
	"github.com/caesium-cloud/cimon/internal/dispatch"
	"github.com/caesium-cloud/cimon/internal/models"
)

type Controller struct {
	cache      *cache.Store
	dispatcher *dispatch.Dispatcher
}

func New(store *cache.Store, dispatcher *dispatch.Dispatcher) *Controller {
	return &Controller{cache: store, dispatcher: dispatcher}
}

// Response is a pipeline with its newest build attached.
type Response struct {
	*models.Pipeline
	LatestBuild *models.Build `json:"latest_build,omitempty"`
}
