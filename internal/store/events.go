package store

import (
	"context"
	"time"
)

// UpsertEvent writes one activity event keyed by the upstream event id.
// Re-ingesting the same id overwrites the mutable fields with the latest
// fetch and never duplicates the row.
func (s *Store) UpsertEvent(ctx context.Context, ev Event) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO github_events (
			id, fid, type, created_at, actor_login, actor_avatar_url,
			repo_name, repo_url, action, commit_message, commit_url, event_url
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			fid = EXCLUDED.fid,
			type = EXCLUDED.type,
			created_at = EXCLUDED.created_at,
			actor_login = EXCLUDED.actor_login,
			actor_avatar_url = EXCLUDED.actor_avatar_url,
			repo_name = EXCLUDED.repo_name,
			repo_url = EXCLUDED.repo_url,
			action = EXCLUDED.action,
			commit_message = EXCLUDED.commit_message,
			commit_url = EXCLUDED.commit_url,
			event_url = EXCLUDED.event_url`,
		ev.ID, ev.FID, ev.Type, ev.CreatedAt, ev.ActorLogin, ev.ActorAvatarURL,
		ev.RepoName, ev.RepoURL, ev.Action, ev.CommitMessage, ev.CommitURL, ev.EventURL,
	)
	return err
}

// FeedEvents returns events for the given fids, newest first. The id is a
// tie-breaker so pagination is stable across equal timestamps.
func (s *Store) FeedEvents(ctx context.Context, fids []int64, limit, offset int) ([]Event, error) {
	if len(fids) == 0 {
		return nil, nil
	}
	rows, err := s.conn.Query(ctx, `
		SELECT id, fid, type, created_at, actor_login, actor_avatar_url,
		       repo_name, repo_url, action, commit_message, commit_url, event_url
		FROM github_events
		WHERE fid = ANY($1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		fids, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		err := rows.Scan(
			&ev.ID, &ev.FID, &ev.Type, &ev.CreatedAt, &ev.ActorLogin, &ev.ActorAvatarURL,
			&ev.RepoName, &ev.RepoURL, &ev.Action, &ev.CommitMessage, &ev.CommitURL, &ev.EventURL,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CountEvents returns how many events exist for the given fids.
func (s *Store) CountEvents(ctx context.Context, fids []int64) (int64, error) {
	if len(fids) == 0 {
		return 0, nil
	}
	var count int64
	err := s.conn.QueryRow(ctx, `
		SELECT count(*) FROM github_events WHERE fid = ANY($1)`,
		fids,
	).Scan(&count)
	return count, err
}

// DeleteEventsBefore removes events older than cutoff and reports how many
// rows went away. One bounded statement; the caller computes the cutoff
// once per sweep.
func (s *Store) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.conn.Exec(ctx, `
		DELETE FROM github_events WHERE created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
