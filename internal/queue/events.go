package queue

import (
	"context"
	"fmt"

	"github.com/gitcast/backend/internal/classifier"
	"github.com/gitcast/backend/internal/github"
	"github.com/gitcast/backend/internal/store"
	"github.com/gitcast/backend/pkg/logger"
)

// ActivitySource is the per-user event listing of the GitHub API.
type ActivitySource interface {
	UserEvents(ctx context.Context, login string) ([]github.Event, error)
}

// EventStore is the store surface of the activity ingestion stage.
type EventStore interface {
	UpsertEvent(ctx context.Context, ev store.Event) error
}

// ProcessEventsMessage handles fetch_github_events: it pulls the bounded
// recent event pages for the linked GitHub account, classifies each record
// and upserts it keyed by the upstream event id.
func ProcessEventsMessage(
	ctx context.Context,
	gh ActivitySource,
	st EventStore,
	msg string,
) error {
	task, err := decodeTask(msg)
	if err != nil {
		return err
	}
	if task.Type != TaskFetchGithubEvents {
		return fmt.Errorf("events_queue cannot handle task type %q", task.Type)
	}

	events, err := gh.UserEvents(ctx, task.GithubUsername)
	if err != nil {
		return err
	}

	for _, ev := range events {
		if err := st.UpsertEvent(ctx, toStoreEvent(task.FID, ev)); err != nil {
			return err
		}
	}

	logger.Info("[Events] Ingested activity", "fid", task.FID, "github_username", task.GithubUsername, "events", len(events))
	return nil
}

func toStoreEvent(fid int64, ev github.Event) store.Event {
	cls := classifier.Classify(ev)

	out := store.Event{
		ID:             ev.ID,
		FID:            fid,
		Type:           ev.Type,
		CreatedAt:      ev.CreatedAt,
		ActorLogin:     ev.Actor.Login,
		ActorAvatarURL: ev.Actor.AvatarURL,
		RepoName:       ev.Repo.Name,
		RepoURL:        ev.Repo.HTMLURL(),
		Action:         cls.Action,
		EventURL:       cls.URL,
	}

	if ev.Type == "PushEvent" && len(ev.Payload.Commits) > 0 {
		first := ev.Payload.Commits[0]
		message := first.Message
		commitURL := fmt.Sprintf("%s/commit/%s", out.RepoURL, first.SHA)
		out.CommitMessage = &message
		out.CommitURL = &commitURL
	}

	return out
}
