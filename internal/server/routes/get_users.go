package routes

import (
	"net/http"

	"github.com/gitcast/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// GetUsersHandler lists every tracked user.
func GetUsersHandler(c echo.Context) error {
	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	users, err := app.Store.ListUsers(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"count": len(users),
		"users": users,
	})
}
