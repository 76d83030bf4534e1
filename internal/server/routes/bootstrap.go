package routes

import (
	"context"

	"github.com/gitcast/backend/internal/queue"
	"github.com/gitcast/backend/internal/server/middleware"
)

// bootstrapUser creates the stub row and enqueues the full cold-start
// triple: profile fetch, follow-graph resolution, verification check.
func bootstrapUser(ctx context.Context, app *middleware.App, fid int64) error {
	if err := app.Store.EnsureUser(ctx, fid); err != nil {
		return err
	}

	tasks := []queue.Task{
		queue.FetchUserDataTask(fid),
		queue.UpdateUserTask(fid),
		queue.CheckGithubVerificationsTask([]int64{fid}),
	}
	for _, task := range tasks {
		if err := app.Publisher.Publish(task); err != nil {
			return err
		}
	}
	return nil
}
