package queue

import (
	"encoding/json"
	"fmt"
)

// Task types. Every message on the wire is a Task with one of these tags;
// payloads carry keys only, never snapshots of derived state.
const (
	TaskFetchUserData            = "fetch_user_data"
	TaskUpdateUser               = "update_user"
	TaskCheckGithubVerifications = "check_github_verifications"
	TaskFetchGithubEvents        = "fetch_github_events"
	TaskFetchStarredRepos        = "fetch_starred_repos"
)

// Queue names. Each has a companion <name>_retry and <name>_dlq.
const (
	UserQueue         = "user_queue"
	VerificationQueue = "verification_queue"
	EventsQueue       = "events_queue"
	StarsQueue        = "stars_queue"
)

// Queues lists the primary pipeline queues in consumption order.
func Queues() []string {
	return []string{UserQueue, VerificationQueue, EventsQueue, StarsQueue}
}

// Task is the discriminated message envelope. Which fields are set depends
// on Type.
type Task struct {
	Type           string  `json:"type"`
	FID            int64   `json:"fid,omitempty"`
	FIDs           []int64 `json:"fids,omitempty"`
	GithubUsername string  `json:"github_username,omitempty"`
}

func FetchUserDataTask(fid int64) Task {
	return Task{Type: TaskFetchUserData, FID: fid}
}

func UpdateUserTask(fid int64) Task {
	return Task{Type: TaskUpdateUser, FID: fid}
}

func CheckGithubVerificationsTask(fids []int64) Task {
	return Task{Type: TaskCheckGithubVerifications, FIDs: fids}
}

func FetchGithubEventsTask(fid int64, githubUsername string) Task {
	return Task{Type: TaskFetchGithubEvents, FID: fid, GithubUsername: githubUsername}
}

func FetchStarredReposTask(fid int64, githubUsername string) Task {
	return Task{Type: TaskFetchStarredRepos, FID: fid, GithubUsername: githubUsername}
}

// Queue returns the queue a task is routed to.
func (t Task) Queue() (string, error) {
	switch t.Type {
	case TaskFetchUserData, TaskUpdateUser:
		return UserQueue, nil
	case TaskCheckGithubVerifications:
		return VerificationQueue, nil
	case TaskFetchGithubEvents:
		return EventsQueue, nil
	case TaskFetchStarredRepos:
		return StarsQueue, nil
	default:
		return "", fmt.Errorf("unknown task type %q", t.Type)
	}
}

func decodeTask(msg string) (Task, error) {
	var task Task
	if err := json.Unmarshal([]byte(msg), &task); err != nil {
		return Task{}, fmt.Errorf("failed to decode task: %w", err)
	}
	return task, nil
}
