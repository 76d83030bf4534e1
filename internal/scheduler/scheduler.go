// Package scheduler drives the time-triggered re-synchronization: full
// verification-directory reconciliation, activity and star refreshes for
// every linked user, and the event retention sweep.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gitcast/backend/internal/config"
	"github.com/gitcast/backend/internal/queue"
	"github.com/gitcast/backend/internal/store"
	"github.com/gitcast/backend/internal/util"
	"github.com/gitcast/backend/pkg/logger"
)

// batchPause separates publish batches so a refresh over a large user set
// does not flood the broker in one burst.
const batchPause = time.Second

// Directory is the full verification-directory walk used by the coarse
// reconciliation, as opposed to the targeted pipeline lookup.
type Directory interface {
	AllGithubVerifications(ctx context.Context) (map[int64]string, error)
}

// Store is the store surface the scheduler needs.
type Store interface {
	SetGithubUsername(ctx context.Context, fid int64, username string) error
	ListLinkedUsers(ctx context.Context) ([]store.User, error)
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler owns the four refresh timers. Each trigger runs in its own
// goroutine; a failing or panicking trigger is logged and never takes the
// others down with it.
type Scheduler struct {
	store     Store
	directory Directory
	pub       queue.Publisher
	cfg       config.Config
	now       func() time.Time
}

func New(st Store, directory Directory, pub queue.Publisher, cfg config.Config) *Scheduler {
	return &Scheduler{
		store:     st,
		directory: directory,
		pub:       pub,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Start launches the tickers and returns. Triggers stop when ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	go s.every(ctx, "verification_refresh", s.cfg.Scheduler.VerificationInterval, s.RefreshVerifications)
	go s.every(ctx, "events_refresh", s.cfg.Scheduler.EventsInterval, s.RefreshEvents)
	go s.every(ctx, "stars_refresh", s.cfg.Scheduler.StarsInterval, s.RefreshStars)
	go s.every(ctx, "retention_sweep", s.cfg.Scheduler.RetentionInterval, s.SweepEvents)
}

func (s *Scheduler) every(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("[Scheduler] Stopping trigger", "trigger", name)
			return
		case <-ticker.C:
			runTrigger(ctx, name, fn)
		}
	}
}

// runTrigger isolates one trigger invocation: errors are logged, panics
// recovered, so one bad run never blocks the other triggers.
func runTrigger(ctx context.Context, name string, fn func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[Scheduler] Trigger panicked", "trigger", name, "panic", r)
		}
	}()

	start := time.Now()
	if err := fn(ctx); err != nil {
		logger.Error("[Scheduler] Trigger failed", "trigger", name, "err", err)
		return
	}
	logger.Info("[Scheduler] Trigger completed", "trigger", name, "duration", time.Since(start).Round(time.Millisecond))
}

// RefreshVerifications re-pulls the entire verification directory, links
// every match and enqueues a profile fetch per matched fid.
func (s *Scheduler) RefreshVerifications(ctx context.Context) error {
	matches, err := s.directory.AllGithubVerifications(ctx)
	if err != nil {
		return fmt.Errorf("directory walk failed: %w", err)
	}

	fids := make([]int64, 0, len(matches))
	for fid := range matches {
		fids = append(fids, fid)
	}
	sort.Slice(fids, func(i, j int) bool { return fids[i] < fids[j] })

	for _, fid := range fids {
		if err := s.store.SetGithubUsername(ctx, fid, matches[fid]); err != nil {
			return err
		}
		if err := s.pub.Publish(queue.FetchUserDataTask(fid)); err != nil {
			return err
		}
	}

	logger.Info("[Scheduler] Reconciled verification directory", "matches", len(matches))
	return nil
}

// RefreshEvents enqueues an activity fetch for every user with a linked
// GitHub account, in bounded batches.
func (s *Scheduler) RefreshEvents(ctx context.Context) error {
	return s.enqueuePerLinkedUser(ctx, func(fid int64, username string) queue.Task {
		return queue.FetchGithubEventsTask(fid, username)
	})
}

// RefreshStars enqueues a starred-repository fetch for every linked user,
// in bounded batches.
func (s *Scheduler) RefreshStars(ctx context.Context) error {
	return s.enqueuePerLinkedUser(ctx, func(fid int64, username string) queue.Task {
		return queue.FetchStarredReposTask(fid, username)
	})
}

func (s *Scheduler) enqueuePerLinkedUser(ctx context.Context, makeTask func(fid int64, username string) queue.Task) error {
	users, err := s.store.ListLinkedUsers(ctx)
	if err != nil {
		return err
	}

	batches := util.Chunk(users, s.cfg.Scheduler.BatchSize)
	for i, batch := range batches {
		for _, u := range batch {
			if u.GithubUsername == nil {
				continue
			}
			if err := s.pub.Publish(makeTask(u.FID, *u.GithubUsername)); err != nil {
				return err
			}
		}
		if i < len(batches)-1 {
			select {
			case <-time.After(batchPause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	logger.Info("[Scheduler] Enqueued refresh", "users", len(users), "batches", len(batches))
	return nil
}

// SweepEvents deletes activity older than the retention horizon. The
// cutoff is computed once per run and applied in a single statement.
func (s *Scheduler) SweepEvents(ctx context.Context) error {
	cutoff := s.now().Add(-s.cfg.Scheduler.RetentionHorizon)
	deleted, err := s.store.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	logger.Info("[Scheduler] Swept expired events", "cutoff", cutoff, "deleted", deleted)
	return nil
}
