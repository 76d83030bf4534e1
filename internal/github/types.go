package github

import (
	"encoding/json"
	"time"
)

// Event is one record from the per-user public event list. Payload fields
// are populated depending on Type.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Actor     Actor     `json:"actor"`
	Repo      EventRepo `json:"repo"`
	Payload   Payload   `json:"payload"`
}

type Actor struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// EventRepo is the compact repository reference embedded in events.
// Name is "owner/repo"; URL is the API url, not the web one.
type EventRepo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// HTMLURL builds the browsable repository URL from the event reference.
func (r EventRepo) HTMLURL() string {
	return "https://github.com/" + r.Name
}

type Payload struct {
	Action      string       `json:"action"`
	Ref         string       `json:"ref"`
	RefType     string       `json:"ref_type"`
	Number      int          `json:"number"`
	Commits     []Commit     `json:"commits"`
	PullRequest *PullRequest `json:"pull_request"`
	Issue       *Issue       `json:"issue"`
	Comment     *Comment     `json:"comment"`
	Forkee      *Repo        `json:"forkee"`
}

type Commit struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
}

type PullRequest struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

type Issue struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

type Comment struct {
	HTMLURL string `json:"html_url"`
}

// Repo is a full repository object as returned by the starred listing.
type Repo struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	FullName        string  `json:"full_name"`
	Description     *string `json:"description"`
	URL             string  `json:"url"`
	HTMLURL         string  `json:"html_url"`
	StargazersCount int64   `json:"stargazers_count"`
	ForksCount      int64   `json:"forks_count"`
}

// StarredRepo is one entry of the starred listing. The API returns either
// a {starred_at, repo} wrapper (star+json media type) or a bare repository
// object; both shapes are resolved here, at the adapter boundary, so the
// rest of the pipeline sees a single type.
type StarredRepo struct {
	StarredAt time.Time
	Repo      Repo
}

func (s *StarredRepo) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		StarredAt *time.Time `json:"starred_at"`
		Repo      *Repo      `json:"repo"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Repo != nil {
		s.Repo = *wrapped.Repo
		if wrapped.StarredAt != nil {
			s.StarredAt = *wrapped.StarredAt
		}
		return nil
	}

	var bare Repo
	if err := json.Unmarshal(data, &bare); err != nil {
		return err
	}
	s.Repo = bare
	return nil
}
