package event

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caesium-cloud/cimon/api/rest/controller/respond"
	"github.com/caesium-cloud/cimon/internal/event"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/labstack/echo/v4"
)

var keepAlive = 15 * time.Second

type Controller struct {
	bus event.Bus
}

func New(bus event.Bus) *Controller {
	return &Controller{bus: bus}
}

func (ctrl *Controller) Stream(c echo.Context) error {
	ctx := c.Request().Context()

	filter, err := parseFilter(c)
	if err != nil {
		return err
	}

	ch, err := ctrl.bus.Subscribe(ctx, filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no") // nginx

	if _, err := fmt.Fprintf(c.Response(), ": ping\n\n"); err != nil {
		return nil
	}
	c.Response().Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprintf(c.Response(), ": ping\n\n"); err != nil {
				return nil
			}
			c.Response().Flush()
		case e, ok := <-ch:
			if !ok {
				return nil
			}

			data, err := json.Marshal(e)
			if err != nil {
				c.Logger().Errorf("failed to marshal event for SSE stream: %v", err)
				continue
			}

			if _, err := fmt.Fprintf(c.Response(), "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Type, data); err != nil {
				return nil
			}
			c.Response().Flush()
		}
	}
}

func parseFilter(c echo.Context) (filter event.Filter, err error) {
	if raw := c.QueryParam("provider"); raw != "" {
		if filter.Provider, err = models.ParseProvider(raw); err != nil {
			return filter, respond.BadRequest(err)
		}
	}

	filter.PipelineID = c.QueryParam("pipeline_id")

	if raw := c.QueryParam("types"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Types = append(filter.Types, event.Type(s))
			}
		}
	}

	return filter, nil
}
