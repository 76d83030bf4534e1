package routes

import (
	"net/http"
	"strconv"

	"github.com/gitcast/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

const defaultTopReposLimit = 20

// GetTopReposHandler lists repositories ranked by star count.
func GetTopReposHandler(c echo.Context) error {
	limit := defaultTopReposLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 100")
		}
		limit = parsed
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	repos, err := app.Store.TopRepositories(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"count": len(repos),
		"repos": repos,
	})
}
