package build

import (
	"io"
	"net/http"
	"strings"

	"github.com/caesium-cloud/cimon/api/rest/controller/respond"
	"github.com/labstack/echo/v4"
)

func (ctrl *Controller) Logs(c echo.Context) error {
	id, err := buildID(c)
	if err != nil {
		return err
	}

	logs, err := ctrl.dispatcher.Logs(c.Request().Context(), id)
	if err != nil {
		return respond.Error(c, err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	res.WriteHeader(http.StatusOK)

	_, err = io.Copy(res, strings.NewReader(logs))
	return err
}
