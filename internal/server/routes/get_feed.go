package routes

import (
	"net/http"

	"github.com/gitcast/backend/internal/queue"
	"github.com/gitcast/backend/internal/server/middleware"
	"github.com/gitcast/backend/internal/store"
	"github.com/gitcast/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 100
)

type feedQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
	Page  int `query:"page" validate:"omitempty,min=1"`
}

// GetFeedHandler serves the aggregated activity feed for a fid and its
// follow closure. A cold miss bootstraps the pipeline; every read
// opportunistically refreshes the follow graph. The response never fails
// on pipeline staleness: stale or empty data is returned as-is.
func GetFeedHandler(c echo.Context) error {
	fid, err := fidParam(c)
	if err != nil {
		return err
	}

	var q feedQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed query parameters")
	}
	if err := c.Validate(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if q.Limit == 0 {
		q.Limit = defaultFeedLimit
	}
	if q.Limit > maxFeedLimit {
		q.Limit = maxFeedLimit
	}
	if q.Page == 0 {
		q.Page = 1
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	fids, err := closure(ctx, app.Store, fid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	events, err := app.Store.FeedEvents(ctx, fids, q.Limit, (q.Page-1)*q.Limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	if len(events) == 0 {
		user, err := app.Store.GetUser(ctx, fid)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		if user == nil {
			// Cold start: never-seen fid. Bootstrap the pipeline and return
			// the empty page; the caller retries once ingestion converges.
			if err := bootstrapUser(ctx, app, fid); err != nil {
				logger.Error("[Feed] Bootstrap failed", "fid", fid, "err", err)
			}
			return feedResponse(c, fid, q, []store.Event{})
		}
	}

	// Keep the follow graph fresh without blocking the response.
	if err := app.Publisher.Publish(queue.UpdateUserTask(fid)); err != nil {
		logger.Error("[Feed] Failed to enqueue follow refresh", "fid", fid, "err", err)
	}

	return feedResponse(c, fid, q, events)
}

func feedResponse(c echo.Context, fid int64, q feedQuery, events []store.Event) error {
	if events == nil {
		events = []store.Event{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"fid":    fid,
		"page":   q.Page,
		"limit":  q.Limit,
		"count":  len(events),
		"events": events,
	})
}
