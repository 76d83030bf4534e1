package farcaster

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFollowing_WalksCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/following" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		switch r.URL.Query().Get("cursor") {
		case "":
			fmt.Fprint(w, `{"users": [{"fid": 1}, {"fid": 2}], "next": {"cursor": "p2"}}`)
		case "p2":
			fmt.Fprint(w, `{"users": [{"fid": 3}], "next": {"cursor": ""}}`)
		default:
			t.Fatalf("unexpected cursor %s", r.URL.Query().Get("cursor"))
		}
	}))
	defer srv.Close()

	c := NewClient(ClientParams{BaseURL: srv.URL, APIKey: "k"})
	fids, err := c.Following(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fids) != 3 || fids[0] != 1 || fids[2] != 3 {
		t.Fatalf("unexpected fids: %v", fids)
	}
}

func TestUsersByFIDs_ChunksRequests(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Query().Get("fids"))
		fmt.Fprint(w, `{"users": []}`)
	}))
	defer srv.Close()

	fids := make([]int64, 150)
	for i := range fids {
		fids[i] = int64(i + 1)
	}

	c := NewClient(ClientParams{BaseURL: srv.URL, APIKey: "k"})
	if _, err := c.UsersByFIDs(context.Background(), fids); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 chunked calls, got %d", len(calls))
	}
	if n := len(strings.Split(calls[0], ",")); n != 100 {
		t.Fatalf("expected 100 fids in first chunk, got %d", n)
	}
	if n := len(strings.Split(calls[1], ",")); n != 50 {
		t.Fatalf("expected 50 fids in second chunk, got %d", n)
	}
}

func TestGithubVerifications_FiltersPlatform(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "k" {
			t.Fatalf("expected api key header, got %q", got)
		}
		fmt.Fprint(w, `{"verifications": [
			{"fid": 1, "platform": "github", "username": "alice"},
			{"fid": 2, "platform": "twitter", "username": "bob"},
			{"fid": 3, "platform": "github", "username": ""}
		]}`)
	}))
	defer srv.Close()

	c := NewClient(ClientParams{BaseURL: srv.URL, APIKey: "k"})
	matches, err := c.GithubVerifications(context.Background(), []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 || matches[1] != "alice" {
		t.Fatalf("expected only alice, got %v", matches)
	}
}

func TestFollowing_RetriesTransientFailure(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"users": [{"fid": 9}], "next": {"cursor": ""}}`)
	}))
	defer srv.Close()

	c := NewClient(ClientParams{BaseURL: srv.URL, APIKey: "k"})
	fids, err := c.Following(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected one retry, got %d attempts", attempts)
	}
	if len(fids) != 1 || fids[0] != 9 {
		t.Fatalf("unexpected fids: %v", fids)
	}
}
