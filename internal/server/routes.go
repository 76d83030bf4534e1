package server

import (
	"github.com/gitcast/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	// Feed read path with bootstrap-on-miss
	e.GET("/feed/:fid", routes.GetFeedHandler)

	// Manual pipeline triggers
	e.POST("/init/:fid", routes.InitUserHandler)
	e.POST("/init-repos/:fid", routes.InitReposHandler)

	// Introspection views
	e.GET("/status/:fid", routes.GetStatusHandler)
	e.GET("/users", routes.GetUsersHandler)
	e.GET("/top-repos", routes.GetTopReposHandler)
}
