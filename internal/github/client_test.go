package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStarredRepoUnmarshal_WrappedShape(t *testing.T) {
	data := []byte(`{
		"starred_at": "2024-03-01T12:00:00Z",
		"repo": {"id": 7, "name": "widgets", "full_name": "alice/widgets", "html_url": "https://github.com/alice/widgets", "stargazers_count": 12, "forks_count": 3}
	}`)

	var s StarredRepo
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if s.Repo.ID != 7 || s.Repo.FullName != "alice/widgets" {
		t.Fatalf("unexpected repo: %+v", s.Repo)
	}
	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if !s.StarredAt.Equal(want) {
		t.Fatalf("expected starred_at %v, got %v", want, s.StarredAt)
	}
}

func TestStarredRepoUnmarshal_BareShape(t *testing.T) {
	data := []byte(`{"id": 9, "name": "gears", "full_name": "bob/gears", "stargazers_count": 1}`)

	var s StarredRepo
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if s.Repo.ID != 9 || s.Repo.FullName != "bob/gears" {
		t.Fatalf("unexpected repo: %+v", s.Repo)
	}
	if !s.StarredAt.IsZero() {
		t.Fatalf("expected zero starred_at, got %v", s.StarredAt)
	}
}

func TestUserEvents_StopsOnShortPage(t *testing.T) {
	var pages int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		w.Header().Set("X-RateLimit-Remaining", "4999")
		fmt.Fprint(w, `[{"id": "1", "type": "WatchEvent", "created_at": "2024-03-01T12:00:00Z", "repo": {"id": 1, "name": "a/b"}}]`)
	}))
	defer srv.Close()

	c := NewClient(ClientParams{BaseURL: srv.URL, MaxEventPages: 3})
	events, err := c.UserEvents(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pages != 1 {
		t.Fatalf("expected a single page fetch, got %d", pages)
	}
	if len(events) != 1 || events[0].Type != "WatchEvent" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestUserEvents_RateLimitExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(ClientParams{BaseURL: srv.URL})
	_, err := c.UserEvents(context.Background(), "alice")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestUserEvents_ForbiddenWithQuotaIsNotRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "100")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(ClientParams{BaseURL: srv.URL})
	_, err := c.UserEvents(context.Background(), "alice")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrRateLimited) {
		t.Fatal("403 with quota left must not be classified as rate limiting")
	}
}

func TestAuthHeaderApplied(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	c := NewClient(ClientParams{BaseURL: srv.URL, Token: "sekret"})
	if _, err := c.UserEvents(context.Background(), "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth != "Bearer sekret" {
		t.Fatalf("expected bearer header, got %q", auth)
	}
}
