package routes

import (
	"net/http"

	"github.com/gitcast/backend/internal/queue"
	"github.com/gitcast/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// InitReposHandler forces star ingestion for a fid with a linked GitHub
// account.
func InitReposHandler(c echo.Context) error {
	fid, err := fidParam(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	user, err := app.Store.GetUser(ctx, fid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if user == nil || user.GithubUsername == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no linked github account"})
	}

	if err := app.Publisher.Publish(queue.FetchStarredReposTask(fid, *user.GithubUsername)); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusAccepted, map[string]any{
		"fid":    fid,
		"status": "star ingestion enqueued",
	})
}
