package pipeline

import (
	"net/http"

	"github.com/caesium-cloud/cimon/api/rest/controller/respond"
	"github.com/caesium-cloud/cimon/internal/cache"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/labstack/echo/v4"
)

func (ctrl *Controller) List(c echo.Context) error {
	req, err := parseListRequest(c)
	if err != nil {
		return err
	}

	pipelines, err := ctrl.cache.ListPipelines(c.Request().Context(), req)
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(http.StatusOK, pipelines)
}

func parseListRequest(c echo.Context) (req *cache.ListRequest, err error) {
	req = new(cache.ListRequest)

	if p := c.QueryParam("provider"); p != "" {
		if req.Provider, err = models.ParseProvider(p); err != nil {
			return nil, respond.BadRequest(err)
		}
	}

	if req.Limit, err = respond.Int(c, "limit"); err != nil {
		return nil, err
	}

	if req.Offset, err = respond.Int(c, "offset"); err != nil {
		return nil, err
	}

	return
}
