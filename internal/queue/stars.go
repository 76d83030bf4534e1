package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/gitcast/backend/internal/github"
	"github.com/gitcast/backend/internal/store"
	"github.com/gitcast/backend/pkg/logger"
)

// StarSource is the starred-repository listing of the GitHub API.
type StarSource interface {
	StarredRepos(ctx context.Context, login string) ([]github.StarredRepo, error)
}

// StarStore is the store surface of the star ingestion stage.
type StarStore interface {
	UpsertRepository(ctx context.Context, repo store.Repository) error
	InsertStarIfAbsent(ctx context.Context, fid, repoID int64, starredAt time.Time) error
	TouchUser(ctx context.Context, fid int64) error
}

// ProcessStarsMessage handles fetch_starred_repos: it walks the full
// starred list, refreshing repository rows and recording star edges. The
// starred_at of an existing edge is never overwritten.
func ProcessStarsMessage(
	ctx context.Context,
	gh StarSource,
	st StarStore,
	msg string,
) error {
	task, err := decodeTask(msg)
	if err != nil {
		return err
	}
	if task.Type != TaskFetchStarredRepos {
		return fmt.Errorf("stars_queue cannot handle task type %q", task.Type)
	}

	starred, err := gh.StarredRepos(ctx, task.GithubUsername)
	if err != nil {
		return err
	}

	for _, entry := range starred {
		repo := entry.Repo
		err := st.UpsertRepository(ctx, store.Repository{
			ID:          repo.ID,
			Name:        repo.Name,
			FullName:    repo.FullName,
			Description: repo.Description,
			URL:         repo.URL,
			HTMLURL:     repo.HTMLURL,
			StarsCount:  repo.StargazersCount,
			ForksCount:  repo.ForksCount,
		})
		if err != nil {
			return err
		}

		starredAt := entry.StarredAt
		if starredAt.IsZero() {
			// Some listing shapes omit the star timestamp.
			starredAt = time.Now().UTC()
		}
		if err := st.InsertStarIfAbsent(ctx, task.FID, repo.ID, starredAt); err != nil {
			return err
		}
	}

	if err := st.TouchUser(ctx, task.FID); err != nil {
		return err
	}

	logger.Info("[Stars] Ingested starred repos", "fid", task.FID, "github_username", task.GithubUsername, "repos", len(starred))
	return nil
}
