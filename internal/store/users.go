package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// EnsureUser inserts a key-only stub row for fid if none exists.
func (s *Store) EnsureUser(ctx context.Context, fid int64) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO users (fid)
		VALUES ($1)
		ON CONFLICT (fid) DO NOTHING`,
		fid,
	)
	return err
}

// UpsertUserProfile applies the Farcaster profile fields for a user,
// creating the row when absent.
func (s *Store) UpsertUserProfile(ctx context.Context, profile UserProfile) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO users (fid, farcaster_username, farcaster_display_name, farcaster_pfp_url, last_updated)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (fid) DO UPDATE SET
			farcaster_username = EXCLUDED.farcaster_username,
			farcaster_display_name = EXCLUDED.farcaster_display_name,
			farcaster_pfp_url = EXCLUDED.farcaster_pfp_url,
			last_updated = now()`,
		profile.FID, profile.Username, profile.DisplayName, profile.PfpURL,
	)
	return err
}

// SetGithubUsername links a verified GitHub account to a user. The row is
// created when it does not exist yet, so a verification arriving before
// identity resolution is never dropped.
func (s *Store) SetGithubUsername(ctx context.Context, fid int64, username string) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO users (fid, github_username, last_updated)
		VALUES ($1, $2, now())
		ON CONFLICT (fid) DO UPDATE SET
			github_username = EXCLUDED.github_username,
			last_updated = now()`,
		fid, username,
	)
	return err
}

// TouchUser bumps last_updated without changing any other field.
func (s *Store) TouchUser(ctx context.Context, fid int64) error {
	_, err := s.conn.Exec(ctx, `
		UPDATE users SET last_updated = now() WHERE fid = $1`,
		fid,
	)
	return err
}

// GetUser returns the user row for fid, or nil when no row exists.
func (s *Store) GetUser(ctx context.Context, fid int64) (*User, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT fid, farcaster_username, farcaster_display_name, farcaster_pfp_url, github_username, last_updated
		FROM users
		WHERE fid = $1`,
		fid,
	)

	var u User
	err := row.Scan(&u.FID, &u.FarcasterUsername, &u.FarcasterDisplayName, &u.FarcasterPfpURL, &u.GithubUsername, &u.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all user rows ordered by fid.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT fid, farcaster_username, farcaster_display_name, farcaster_pfp_url, github_username, last_updated
		FROM users
		ORDER BY fid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

// ListLinkedUsers returns every user with a known GitHub username.
func (s *Store) ListLinkedUsers(ctx context.Context) ([]User, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT fid, farcaster_username, farcaster_display_name, farcaster_pfp_url, github_username, last_updated
		FROM users
		WHERE github_username IS NOT NULL
		ORDER BY fid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

// FilterUnenriched returns the subset of fids whose user rows have no
// Farcaster profile yet (including fids with no row at all).
func (s *Store) FilterUnenriched(ctx context.Context, fids []int64) ([]int64, error) {
	if len(fids) == 0 {
		return nil, nil
	}
	rows, err := s.conn.Query(ctx, `
		SELECT candidate.fid
		FROM unnest($1::bigint[]) AS candidate(fid)
		LEFT JOIN users u ON u.fid = candidate.fid
		WHERE u.fid IS NULL OR u.farcaster_username IS NULL`,
		fids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var fid int64
		if err := rows.Scan(&fid); err != nil {
			return nil, err
		}
		out = append(out, fid)
	}
	return out, rows.Err()
}

// CountLinked returns how many of the given fids have a GitHub username.
func (s *Store) CountLinked(ctx context.Context, fids []int64) (int64, error) {
	if len(fids) == 0 {
		return 0, nil
	}
	var count int64
	err := s.conn.QueryRow(ctx, `
		SELECT count(*) FROM users
		WHERE fid = ANY($1) AND github_username IS NOT NULL`,
		fids,
	).Scan(&count)
	return count, err
}

func scanUsers(rows pgx.Rows) ([]User, error) {
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.FID, &u.FarcasterUsername, &u.FarcasterDisplayName, &u.FarcasterPfpURL, &u.GithubUsername, &u.LastUpdated); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
