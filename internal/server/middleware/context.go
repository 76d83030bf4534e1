package middleware

import (
	"context"

	"github.com/gitcast/backend/internal/queue"
	"github.com/gitcast/backend/internal/store"

	"github.com/labstack/echo/v4"
)

// Store is the read-path surface of the Postgres gateway. Handlers depend
// on this interface so tests can run against an in-memory double.
type Store interface {
	GetUser(ctx context.Context, fid int64) (*store.User, error)
	EnsureUser(ctx context.Context, fid int64) error
	ListUsers(ctx context.Context) ([]store.User, error)
	Following(ctx context.Context, fid int64) ([]int64, error)
	CountFollows(ctx context.Context, fid int64) (int64, error)
	CountLinked(ctx context.Context, fids []int64) (int64, error)
	FeedEvents(ctx context.Context, fids []int64, limit, offset int) ([]store.Event, error)
	CountEvents(ctx context.Context, fids []int64) (int64, error)
	TopRepositories(ctx context.Context, limit int) ([]store.Repository, error)
}

// App bundles the dependencies every route handler may need.
type App struct {
	Store     Store
	Publisher queue.Publisher
}

// AppContext wraps the echo context with the application dependencies.
type AppContext struct {
	echo.Context
	App *App
}

// AppContextMiddleware injects the App into every request context.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{Context: c, App: app})
		}
	}
}
