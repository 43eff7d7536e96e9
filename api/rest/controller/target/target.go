package target

import (
	"net/http"

	"github.com/caesium-cloud/cimon/api/rest/controller/respond"
	"github.com/caesium-cloud/cimon/internal/cache"
	"github.com/caesium-cloud/cimon/internal/models"
	targets "github.com/caesium-cloud/cimon/internal/target"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	cache *cache.Store
}

func New(store *cache.Store) *Controller {
	return &Controller{cache: store}
}

func (ctrl *Controller) List(c echo.Context) error {
	var p models.Provider
	if raw := c.QueryParam("provider"); raw != "" {
		var err error
		if p, err = models.ParseProvider(raw); err != nil {
			return respond.BadRequest(err)
		}
	}

	list, err := ctrl.cache.ListTargets(c.Request().Context(), p)
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(http.StatusOK, list)
}

func (ctrl *Controller) Post(c echo.Context) error {
	t := new(models.Target)
	if err := c.Bind(t); err != nil {
		return err
	}
	t.ID = ""

	if p, err := models.ParseProvider(string(t.Provider)); err == nil {
		t.Provider = p
	}

	if err := targets.Validate(t); err != nil {
		return respond.BadRequest(err)
	}

	if err := ctrl.cache.SaveTarget(c.Request().Context(), t); err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(http.StatusCreated, t)
}

func (ctrl *Controller) Delete(c echo.Context) error {
	id, err := respond.Param(c, "id")
	if err != nil {
		return err
	}

	if err := ctrl.cache.DeleteTarget(c.Request().Context(), id); err != nil {
		return respond.Error(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
