package preferences

import (
	"net/http"

	"github.com/caesium-cloud/cimon/api/rest/controller/respond"
	"github.com/caesium-cloud/cimon/internal/cache"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	cache *cache.Store
}

func New(store *cache.Store) *Controller {
	return &Controller{cache: store}
}

func (ctrl *Controller) Get(c echo.Context) error {
	prefs, err := ctrl.cache.Preferences(c.Request().Context())
	if err != nil {
		return respond.Error(c, err)
	}
	return c.JSON(http.StatusOK, prefs)
}

// Put replaces the preferences. Fields left out of the body keep their
// current values.
func (ctrl *Controller) Put(c echo.Context) error {
	ctx := c.Request().Context()

	prefs, err := ctrl.cache.Preferences(ctx)
	if err != nil {
		return respond.Error(c, err)
	}

	if err := c.Bind(prefs); err != nil {
		return err
	}

	if err := ctrl.cache.SavePreferences(ctx, prefs); err != nil {
		return respond.Error(c, err)
	}

	return c.JSON(http.StatusOK, prefs)
}
