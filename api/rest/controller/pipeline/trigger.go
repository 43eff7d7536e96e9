package pipeline

import (
	"net/http"
	"strings"

	"github.com/caesium-cloud/cimon/api/rest/controller/respond"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider"
	"github.com/labstack/echo/v4"
)

// TriggerRequest is the optional body of a trigger call.
type TriggerRequest struct {
	Branch string            `json:"branch"`
	Inputs map[string]string `json:"inputs"`
}

func (ctrl *Controller) Trigger(c echo.Context) error {
	id, err := respond.Param(c, "id")
	if err != nil {
		return err
	}

	if _, err := models.ProviderFromID(id); err != nil {
		return respond.BadRequest(err)
	}

	req := new(TriggerRequest)
	if c.Request().ContentLength != 0 {
		if err := c.Bind(req); err != nil {
			return err
		}
	}

	build, err := ctrl.dispatcher.TriggerWith(
		c.Request().Context(),
		id,
		provider.TriggerOptions{
			Branch: strings.TrimSpace(req.Branch),
			Inputs: req.Inputs,
		},
	)
	if err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(http.StatusAccepted, build)
}
