package rpcerr

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Respond writes err as an error body. Internal failures are logged with their
// cause, which never reaches the client.
func Respond(c echo.Context, err error) error {
	status, body := ResponseOf(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Request().URL.Path,
		}).Error("Request failed")
	}
	return c.JSON(status, body)
}
