package routes

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gitcast/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// fidParam parses the :fid path parameter. A malformed fid is a client
// error rejected at the boundary; it never reaches the queue.
func fidParam(c echo.Context) (int64, error) {
	fid, err := strconv.ParseInt(c.Param("fid"), 10, 64)
	if err != nil || fid <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "fid must be a positive integer")
	}
	return fid, nil
}

// closure returns the fid plus everyone it follows.
func closure(ctx context.Context, st middleware.Store, fid int64) ([]int64, error) {
	following, err := st.Following(ctx, fid)
	if err != nil {
		return nil, err
	}
	return append([]int64{fid}, following...), nil
}
