package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gitcast/backend/internal/farcaster"
	"github.com/gitcast/backend/internal/github"
	"github.com/gitcast/backend/internal/store"
)

// fakeStore records mutations in memory with the same idempotency rules as
// the Postgres gateway.
type fakeStore struct {
	users    map[int64]*store.User
	follows  map[int64][]int64
	events   map[string]store.Event
	repos    map[int64]store.Repository
	stars    map[[2]int64]time.Time
	touched  []int64
	failNext error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   map[int64]*store.User{},
		follows: map[int64][]int64{},
		events:  map[string]store.Event{},
		repos:   map[int64]store.Repository{},
		stars:   map[[2]int64]time.Time{},
	}
}

func (f *fakeStore) EnsureUser(_ context.Context, fid int64) error {
	if f.failNext != nil {
		return f.failNext
	}
	if _, ok := f.users[fid]; !ok {
		f.users[fid] = &store.User{FID: fid}
	}
	return nil
}

func (f *fakeStore) UpsertUserProfile(_ context.Context, p store.UserProfile) error {
	u, ok := f.users[p.FID]
	if !ok {
		u = &store.User{FID: p.FID}
		f.users[p.FID] = u
	}
	u.FarcasterUsername = &p.Username
	u.FarcasterDisplayName = &p.DisplayName
	u.FarcasterPfpURL = &p.PfpURL
	return nil
}

func (f *fakeStore) SetGithubUsername(_ context.Context, fid int64, username string) error {
	u, ok := f.users[fid]
	if !ok {
		u = &store.User{FID: fid}
		f.users[fid] = u
	}
	u.GithubUsername = &username
	return nil
}

func (f *fakeStore) TouchUser(_ context.Context, fid int64) error {
	f.touched = append(f.touched, fid)
	return nil
}

func (f *fakeStore) FilterUnenriched(_ context.Context, fids []int64) ([]int64, error) {
	var out []int64
	for _, fid := range fids {
		u, ok := f.users[fid]
		if !ok || u.FarcasterUsername == nil {
			out = append(out, fid)
		}
	}
	return out, nil
}

func (f *fakeStore) ReplaceFollows(_ context.Context, follower int64, following []int64) error {
	f.follows[follower] = append([]int64(nil), following...)
	return nil
}

func (f *fakeStore) UpsertEvent(_ context.Context, ev store.Event) error {
	f.events[ev.ID] = ev
	return nil
}

func (f *fakeStore) UpsertRepository(_ context.Context, repo store.Repository) error {
	f.repos[repo.ID] = repo
	return nil
}

func (f *fakeStore) InsertStarIfAbsent(_ context.Context, fid, repoID int64, starredAt time.Time) error {
	key := [2]int64{fid, repoID}
	if _, ok := f.stars[key]; !ok {
		f.stars[key] = starredAt
	}
	return nil
}

// fakePublisher collects published tasks.
type fakePublisher struct {
	tasks []Task
}

func (p *fakePublisher) Publish(task Task) error {
	p.tasks = append(p.tasks, task)
	return nil
}

func (p *fakePublisher) ofType(taskType string) []Task {
	var out []Task
	for _, t := range p.tasks {
		if t.Type == taskType {
			out = append(out, t)
		}
	}
	return out
}

type fakeSocialGraph struct {
	following map[int64][]int64
	profiles  map[int64]farcaster.Profile
	err       error
}

func (f *fakeSocialGraph) Following(_ context.Context, fid int64) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.following[fid], nil
}

func (f *fakeSocialGraph) UsersByFIDs(_ context.Context, fids []int64) ([]farcaster.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []farcaster.Profile
	for _, fid := range fids {
		if p, ok := f.profiles[fid]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeDirectory struct {
	matches map[int64]string
	err     error
}

func (f *fakeDirectory) GithubVerifications(_ context.Context, fids []int64) (map[int64]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[int64]string{}
	for _, fid := range fids {
		if username, ok := f.matches[fid]; ok {
			out[fid] = username
		}
	}
	return out, nil
}

type fakeGithub struct {
	events  []github.Event
	starred []github.StarredRepo
	err     error
}

func (f *fakeGithub) UserEvents(_ context.Context, _ string) ([]github.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeGithub) StarredRepos(_ context.Context, _ string) ([]github.StarredRepo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.starred, nil
}

func mustJSON(t *testing.T, task Task) string {
	t.Helper()
	data, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("failed to marshal task: %v", err)
	}
	return string(data)
}
