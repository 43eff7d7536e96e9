package pipeline

import (
	"errors"
	"net/http"

	"github.com/caesium-cloud/cimon/api/rest/controller/respond"
	"github.com/caesium-cloud/cimon/internal/cache"
	"github.com/labstack/echo/v4"
)

func (ctrl *Controller) Get(c echo.Context) error {
	id, err := respond.Param(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()

	p, err := ctrl.cache.GetPipeline(ctx, id)
	if err != nil {
		return respond.Error(c, err)
	}

	resp := &Response{Pipeline: p}

	latest, err := ctrl.cache.LatestBuild(ctx, p.ID)
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		return respond.Error(c, err)
	}
	resp.LatestBuild = latest

	return c.JSON(http.StatusOK, resp)
}

func (ctrl *Controller) Builds(c echo.Context) error {
	id, err := respond.Param(c, "id")
	if err != nil {
		return err
	}

	limit, err := respond.Int(c, "limit")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()

	if _, err := ctrl.cache.GetPipeline(ctx, id); err != nil {
		return respond.Error(c, err)
	}

	builds, err := ctrl.cache.ListBuilds(ctx, id, limit)
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(http.StatusOK, builds)
}
