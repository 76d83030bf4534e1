package store

import (
	"context"
	"time"
)

// UpsertRepository refreshes a repository row, including its star and fork
// counts, keyed by the upstream repository id.
func (s *Store) UpsertRepository(ctx context.Context, repo Repository) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO repositories (
			id, name, full_name, description, url, html_url,
			stars_count, forks_count, last_updated
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			full_name = EXCLUDED.full_name,
			description = EXCLUDED.description,
			url = EXCLUDED.url,
			html_url = EXCLUDED.html_url,
			stars_count = EXCLUDED.stars_count,
			forks_count = EXCLUDED.forks_count,
			last_updated = now()`,
		repo.ID, repo.Name, repo.FullName, repo.Description, repo.URL, repo.HTMLURL,
		repo.StarsCount, repo.ForksCount,
	)
	return err
}

// TopRepositories returns repositories ordered by star count descending.
func (s *Store) TopRepositories(ctx context.Context, limit int) ([]Repository, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, name, full_name, description, url, html_url,
		       stars_count, forks_count, last_updated
		FROM repositories
		ORDER BY stars_count DESC, id
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var repos []Repository
	for rows.Next() {
		var r Repository
		err := rows.Scan(
			&r.ID, &r.Name, &r.FullName, &r.Description, &r.URL, &r.HTMLURL,
			&r.StarsCount, &r.ForksCount, &r.LastUpdated,
		)
		if err != nil {
			return nil, err
		}
		repos = append(repos, r)
	}
	return repos, rows.Err()
}

// InsertStarIfAbsent records that fid starred repoID. The original
// starred_at is immutable: re-running the ingestion never overwrites it.
func (s *Store) InsertStarIfAbsent(ctx context.Context, fid, repoID int64, starredAt time.Time) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO user_stars (fid, repo_id, starred_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (fid, repo_id) DO NOTHING`,
		fid, repoID, starredAt,
	)
	return err
}
