package queue

import (
	"context"
	"fmt"

	"github.com/gitcast/backend/internal/farcaster"
	"github.com/gitcast/backend/internal/store"
	"github.com/gitcast/backend/internal/util"
	"github.com/gitcast/backend/pkg/logger"
)

// verificationChunk bounds how many fids travel in one
// check_github_verifications task, matching the directory's bulk-lookup
// limit.
const verificationChunk = 100

// SocialGraph is the part of the Farcaster API the identity stage needs.
type SocialGraph interface {
	Following(ctx context.Context, fid int64) ([]int64, error)
	UsersByFIDs(ctx context.Context, fids []int64) ([]farcaster.Profile, error)
}

// IdentityStore is the store surface of the identity stage.
type IdentityStore interface {
	EnsureUser(ctx context.Context, fid int64) error
	UpsertUserProfile(ctx context.Context, profile store.UserProfile) error
	FilterUnenriched(ctx context.Context, fids []int64) ([]int64, error)
	ReplaceFollows(ctx context.Context, follower int64, following []int64) error
}

// ProcessUserMessage handles user_queue messages: fetch_user_data enriches
// a single profile, update_user resolves the follow graph. Any returned
// error leaves the message unacknowledged for redelivery.
func ProcessUserMessage(
	ctx context.Context,
	fc SocialGraph,
	st IdentityStore,
	pub Publisher,
	msg string,
) error {
	task, err := decodeTask(msg)
	if err != nil {
		return err
	}

	switch task.Type {
	case TaskFetchUserData:
		return fetchUserData(ctx, fc, st, task.FID)
	case TaskUpdateUser:
		return updateUser(ctx, fc, st, pub, task.FID)
	default:
		return fmt.Errorf("user_queue cannot handle task type %q", task.Type)
	}
}

func fetchUserData(ctx context.Context, fc SocialGraph, st IdentityStore, fid int64) error {
	profiles, err := fc.UsersByFIDs(ctx, []int64{fid})
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		// Unknown upstream identity. Nothing to enrich, nothing to retry.
		logger.Debug("[Identity] No profile found", "fid", fid)
		return nil
	}

	p := profiles[0]
	return st.UpsertUserProfile(ctx, store.UserProfile{
		FID:         p.FID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		PfpURL:      p.PfpURL,
	})
}

func updateUser(ctx context.Context, fc SocialGraph, st IdentityStore, pub Publisher, fid int64) error {
	// Fetch the complete snapshot before touching the store, so an
	// upstream failure aborts the stage with zero partial edge mutation.
	following, err := fc.Following(ctx, fid)
	if err != nil {
		return fmt.Errorf("aborting follow refresh for fid %d: %w", fid, err)
	}

	if err := st.EnsureUser(ctx, fid); err != nil {
		return err
	}
	for _, followed := range following {
		if err := st.EnsureUser(ctx, followed); err != nil {
			return err
		}
	}

	unenriched, err := st.FilterUnenriched(ctx, following)
	if err != nil {
		return err
	}
	for _, stub := range unenriched {
		if err := pub.Publish(FetchUserDataTask(stub)); err != nil {
			return err
		}
	}

	if err := st.ReplaceFollows(ctx, fid, following); err != nil {
		return err
	}

	closure := append([]int64{fid}, following...)
	for _, chunk := range util.Chunk(closure, verificationChunk) {
		if err := pub.Publish(CheckGithubVerificationsTask(chunk)); err != nil {
			return err
		}
	}

	logger.Info("[Identity] Refreshed follow graph", "fid", fid, "following", len(following), "unenriched", len(unenriched))
	return nil
}
