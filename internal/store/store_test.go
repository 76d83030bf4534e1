package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// testStore connects to TEST_DATABASE_URL and applies the schema. Tests
// that need Postgres are skipped when the variable is unset.
func testStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	s := New(pool)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	for _, table := range []string{"users", "follows", "github_events", "repositories", "user_stars"} {
		if _, err := pool.Exec(ctx, "TRUNCATE "+table); err != nil {
			t.Fatalf("failed to truncate %s: %v", table, err)
		}
	}
	return s
}

func strptr(s string) *string { return &s }

func TestUpsertEvent_NoDuplicateOnReingest(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	ev := Event{
		ID:         "1234",
		FID:        42,
		Type:       "PushEvent",
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		ActorLogin: "alice",
		RepoName:   "alice/widgets",
		RepoURL:    "https://github.com/alice/widgets",
		Action:     "pushed 1 commit",
		EventURL:   "https://github.com/alice/widgets/commit/aaa",
	}
	if err := s.UpsertEvent(ctx, ev); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	ev.Action = "pushed 2 commits"
	ev.CommitMessage = strptr("fix build")
	if err := s.UpsertEvent(ctx, ev); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	events, err := s.FeedEvents(ctx, []int64{42}, 10, 0)
	if err != nil {
		t.Fatalf("feed query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 row, got %d", len(events))
	}
	if events[0].Action != "pushed 2 commits" {
		t.Fatalf("expected latest action, got %q", events[0].Action)
	}
	if events[0].CommitMessage == nil || *events[0].CommitMessage != "fix build" {
		t.Fatalf("expected latest commit message, got %v", events[0].CommitMessage)
	}
}

func TestReplaceFollows_SecondSnapshotWins(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.ReplaceFollows(ctx, 42, []int64{1, 2, 3}); err != nil {
		t.Fatalf("first replace failed: %v", err)
	}
	if err := s.ReplaceFollows(ctx, 42, []int64{3, 4}); err != nil {
		t.Fatalf("second replace failed: %v", err)
	}

	following, err := s.Following(ctx, 42)
	if err != nil {
		t.Fatalf("following query failed: %v", err)
	}
	got := map[int64]bool{}
	for _, fid := range following {
		got[fid] = true
	}
	if len(got) != 2 || !got[3] || !got[4] {
		t.Fatalf("expected exactly {3, 4}, got %v", following)
	}
}

func TestInsertStarIfAbsent_StarredAtImmutable(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.InsertStarIfAbsent(ctx, 42, 77, first); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if err := s.InsertStarIfAbsent(ctx, 42, 77, first.Add(48*time.Hour)); err != nil {
		t.Fatalf("second insert failed: %v", err)
	}

	var starredAt time.Time
	err := s.conn.QueryRow(ctx, `SELECT starred_at FROM user_stars WHERE fid = 42 AND repo_id = 77`).Scan(&starredAt)
	if err != nil {
		t.Fatalf("star query failed: %v", err)
	}
	if !starredAt.Equal(first) {
		t.Fatalf("starred_at changed: expected %v, got %v", first, starredAt)
	}
}

func TestDeleteEventsBefore_CutoffBoundary(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	cutoff := now.Add(-5 * 24 * time.Hour)

	old := Event{
		ID: "old", FID: 42, Type: "WatchEvent",
		CreatedAt: cutoff.Add(-time.Second),
		RepoName:  "a/b", RepoURL: "https://github.com/a/b",
		Action: "starred repository", EventURL: "https://github.com/a/b",
	}
	fresh := old
	fresh.ID = "fresh"
	fresh.CreatedAt = now.Add(-(4*24*time.Hour + 23*time.Hour + 59*time.Minute))

	for _, ev := range []Event{old, fresh} {
		if err := s.UpsertEvent(ctx, ev); err != nil {
			t.Fatalf("upsert %s failed: %v", ev.ID, err)
		}
	}

	deleted, err := s.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted row, got %d", deleted)
	}

	events, err := s.FeedEvents(ctx, []int64{42}, 10, 0)
	if err != nil {
		t.Fatalf("feed query failed: %v", err)
	}
	if len(events) != 1 || events[0].ID != "fresh" {
		t.Fatalf("expected only the fresh event to survive, got %v", events)
	}
}

func TestFeedEvents_PaginationOrderAndClosure(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		fid := int64(42)
		if i%2 == 1 {
			fid = 7 // someone 42 follows
		}
		ev := Event{
			ID: fmt.Sprintf("ev-%d", i), FID: fid, Type: "WatchEvent",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			RepoName:  "a/b", RepoURL: "https://github.com/a/b",
			Action: "starred repository", EventURL: "https://github.com/a/b",
		}
		if err := s.UpsertEvent(ctx, ev); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	page, err := s.FeedEvents(ctx, []int64{42, 7}, 2, 0)
	if err != nil {
		t.Fatalf("feed query failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 events, got %d", len(page))
	}
	if page[0].CreatedAt.Before(page[1].CreatedAt) {
		t.Fatalf("expected descending timestamps, got %v then %v", page[0].CreatedAt, page[1].CreatedAt)
	}
	if page[0].ID == page[1].ID {
		t.Fatalf("duplicate id %s in page", page[0].ID)
	}

	second, err := s.FeedEvents(ctx, []int64{42, 7}, 2, 2)
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	for _, ev := range second {
		if ev.ID == page[0].ID || ev.ID == page[1].ID {
			t.Fatalf("event %s repeated across pages", ev.ID)
		}
	}
}

func TestSetGithubUsername_CreatesMissingRow(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SetGithubUsername(ctx, 99, "carol"); err != nil {
		t.Fatalf("set username failed: %v", err)
	}

	u, err := s.GetUser(ctx, 99)
	if err != nil {
		t.Fatalf("get user failed: %v", err)
	}
	if u == nil {
		t.Fatal("expected row to be created")
	}
	if u.GithubUsername == nil || *u.GithubUsername != "carol" {
		t.Fatalf("expected github username carol, got %v", u.GithubUsername)
	}
}
