package store

import (
	"context"
)

// ReplaceFollows swaps the full edge set for follower in one transaction,
// so a reader never observes a mix of two snapshots and a crash cannot
// leave the follower with a half-written set.
func (s *Store) ReplaceFollows(ctx context.Context, follower int64, following []int64) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM follows WHERE follower_fid = $1`, follower); err != nil {
		return err
	}

	if len(following) > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO follows (follower_fid, following_fid, created_at)
			SELECT $1, fid, now() FROM unnest($2::bigint[]) AS t(fid)
			ON CONFLICT (follower_fid, following_fid) DO NOTHING`,
			follower, following,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Following returns the fids the given user follows.
func (s *Store) Following(ctx context.Context, fid int64) ([]int64, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT following_fid FROM follows WHERE follower_fid = $1`,
		fid,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var f int64
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CountFollows returns the size of the user's current following set.
func (s *Store) CountFollows(ctx context.Context, fid int64) (int64, error) {
	var count int64
	err := s.conn.QueryRow(ctx, `
		SELECT count(*) FROM follows WHERE follower_fid = $1`,
		fid,
	).Scan(&count)
	return count, err
}
