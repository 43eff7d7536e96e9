package build

import (
	"net/http"

	"github.com/caesium-cloud/cimon/api/rest/controller/respond"
	"github.com/caesium-cloud/cimon/internal/cache"
	"github.com/caesium-cloud/cimon/internal/dispatch"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	cache      *cache.Store
	dispatcher *dispatch.Dispatcher
}

func New(store *cache.Store, dispatcher *dispatch.Dispatcher) *Controller {
	return &Controller{cache: store, dispatcher: dispatcher}
}

func (ctrl *Controller) Get(c echo.Context) error {
	id, err := respond.Param(c, "id")
	if err != nil {
		return err
	}

	b, err := ctrl.cache.GetBuild(c.Request().Context(), id)
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(http.StatusOK, b)
}

func (ctrl *Controller) Retry(c echo.Context) error {
	id, err := buildID(c)
	if err != nil {
		return err
	}

	b, err := ctrl.dispatcher.Retry(c.Request().Context(), id)
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(http.StatusAccepted, b)
}

func (ctrl *Controller) Cancel(c echo.Context) error {
	id, err := buildID(c)
	if err != nil {
		return err
	}

	if err := ctrl.dispatcher.Cancel(c.Request().Context(), id); err != nil {
		return respond.Error(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func buildID(c echo.Context) (string, error) {
	id, err := respond.Param(c, "id")
	if err != nil {
		return "", err
	}
	if _, err := models.ProviderFromID(id); err != nil {
		return "", respond.BadRequest(err)
	}
	return id, nil
}
