package routes

import (
	"net/http"

	"github.com/gitcast/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// InitUserHandler forces the pipeline bootstrap for a fid, regardless of
// whether data already exists. Processing is asynchronous; the response
// only confirms the enqueue.
func InitUserHandler(c echo.Context) error {
	fid, err := fidParam(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	if err := bootstrapUser(ctx, app, fid); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusAccepted, map[string]any{
		"fid":    fid,
		"status": "bootstrap enqueued",
	})
}
