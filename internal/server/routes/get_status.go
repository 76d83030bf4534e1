package routes

import (
	"net/http"

	"github.com/gitcast/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// GetStatusHandler reports how far the pipeline has converged for a fid:
// follow count, linked accounts in the closure, and ingested event count.
func GetStatusHandler(c echo.Context) error {
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
	if user == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown fid"})
	}

	fids, err := closure(ctx, app.Store, fid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	follows, err := app.Store.CountFollows(ctx, fid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	linked, err := app.Store.CountLinked(ctx, fids)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	events, err := app.Store.CountEvents(ctx, fids)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	resp := map[string]any{
		"fid":          fid,
		"follows":      follows,
		"linked_users": linked,
		"events":       events,
	}
	if user.GithubUsername != nil {
		resp["github_username"] = *user.GithubUsername
	}
	return c.JSON(http.StatusOK, resp)
}
