package queue

import (
	"context"
	"fmt"
	"sort"

	"github.com/gitcast/backend/pkg/logger"
)

// VerificationDirectory is the targeted lookup of verified GitHub links.
type VerificationDirectory interface {
	GithubVerifications(ctx context.Context, fids []int64) (map[int64]string, error)
}

// VerificationStore is the store surface of the verification stage.
type VerificationStore interface {
	SetGithubUsername(ctx context.Context, fid int64, username string) error
}

// ProcessVerificationMessage handles check_github_verifications: it queries
// the directory for exactly the requested fids, links each match and chains
// an event fetch for it. Fids without a verification are left untouched;
// absence is not an error.
func ProcessVerificationMessage(
	ctx context.Context,
	directory VerificationDirectory,
	st VerificationStore,
	pub Publisher,
	msg string,
) error {
	task, err := decodeTask(msg)
	if err != nil {
		return err
	}
	if task.Type != TaskCheckGithubVerifications {
		return fmt.Errorf("verification_queue cannot handle task type %q", task.Type)
	}
	if len(task.FIDs) == 0 {
		return nil
	}

	matches, err := directory.GithubVerifications(ctx, task.FIDs)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		logger.Debug("[Verification] No matches", "fids", len(task.FIDs))
		return nil
	}

	fids := make([]int64, 0, len(matches))
	for fid := range matches {
		fids = append(fids, fid)
	}
	sort.Slice(fids, func(i, j int) bool { return fids[i] < fids[j] })

	for _, fid := range fids {
		username := matches[fid]
		// SetGithubUsername upserts, so a verification landing before the
		// identity stage created the row still sticks.
		if err := st.SetGithubUsername(ctx, fid, username); err != nil {
			return err
		}
		if err := pub.Publish(FetchGithubEventsTask(fid, username)); err != nil {
			return err
		}
	}

	logger.Info("[Verification] Linked accounts", "requested", len(task.FIDs), "matched", len(matches))
	return nil
}
