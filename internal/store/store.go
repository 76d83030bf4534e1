package store

import (
	"context"
	_ "embed"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// User is a Farcaster identity. Rows start as key-only stubs and are
// enriched incrementally; they are never deleted.
type User struct {
	FID                  int64      `json:"fid"`
	FarcasterUsername    *string    `json:"farcaster_username"`
	FarcasterDisplayName *string    `json:"farcaster_display_name"`
	FarcasterPfpURL      *string    `json:"farcaster_pfp_url"`
	GithubUsername       *string    `json:"github_username"`
	LastUpdated          *time.Time `json:"last_updated"`
}

// UserProfile carries the Farcaster profile fields applied by an
// enrichment upsert.
type UserProfile struct {
	FID         int64
	Username    string
	DisplayName string
	PfpURL      string
}

// Event is one ingested GitHub activity record, keyed by the upstream
// event id. Action and EventURL are derived once at ingestion time.
type Event struct {
	ID             string    `json:"id"`
	FID            int64     `json:"fid"`
	Type           string    `json:"type"`
	CreatedAt      time.Time `json:"created_at"`
	ActorLogin     string    `json:"actor_login"`
	ActorAvatarURL string    `json:"actor_avatar_url"`
	RepoName       string    `json:"repo_name"`
	RepoURL        string    `json:"repo_url"`
	Action         string    `json:"action"`
	CommitMessage  *string   `json:"commit_message,omitempty"`
	CommitURL      *string   `json:"commit_url,omitempty"`
	EventURL       string    `json:"event_url"`
}

// Repository is a starred GitHub repository, keyed by the upstream id.
type Repository struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	FullName    string     `json:"full_name"`
	Description *string    `json:"description"`
	URL         string     `json:"url"`
	HTMLURL     string     `json:"html_url"`
	StarsCount  int64      `json:"stars_count"`
	ForksCount  int64      `json:"forks_count"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// Store is the Postgres gateway. Every write is a single idempotent
// statement keyed by the row's primary or composite key; the only
// multi-statement operation is the follow-edge replacement, which runs in
// one transaction.
type Store struct {
	conn *pgxpool.Pool
}

func New(conn *pgxpool.Pool) *Store {
	return &Store{conn: conn}
}

// Migrate applies the embedded schema. Every statement is IF NOT EXISTS,
// safe to run at every boot.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, schema)
	return err
}
