package sync

import (
	"net/http"

	"github.com/caesium-cloud/cimon/api/rest/controller/respond"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/syncer"
	"github.com/labstack/echo/v4"
)

// PhaseReader reports the progress of provider syncs.
type PhaseReader interface {
	Phases() map[models.Provider]syncer.Phase
}

type Controller struct {
	syncer syncer.Syncer
	phases PhaseReader
}

func New(s syncer.Syncer, phases PhaseReader) *Controller {
	return &Controller{syncer: s, phases: phases}
}

// Post runs a sync of one provider, or of every provider when none is given.
// The result is returned even when some providers failed.
func (ctrl *Controller) Post(c echo.Context) error {
	ctx := c.Request().Context()

	if raw := c.QueryParam("provider"); raw != "" {
		p, err := models.ParseProvider(raw)
		if err != nil {
			return respond.BadRequest(err)
		}

		return c.JSON(http.StatusOK, syncer.Result{
			Providers: []syncer.ProviderResult{ctrl.syncer.SyncOne(ctx, p)},
		})
	}

	return c.JSON(http.StatusOK, ctrl.syncer.SyncAll(ctx))
}

func (ctrl *Controller) Status(c echo.Context) error {
	phases := make(map[models.Provider]syncer.Phase, len(models.Providers))
	for _, p := range models.Providers {
		phases[p] = syncer.PhaseIdle
	}
	if ctrl.phases != nil {
		for p, phase := range ctrl.phases.Phases() {
			phases[p] = phase
		}
	}

	return c.JSON(http.StatusOK, phases)
}
