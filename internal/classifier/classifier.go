// Package classifier maps raw GitHub activity records to a human-readable
// action string and a canonical deep link. It is pure: classification has
// no side effects and is computed once at ingestion time.
package classifier

import (
	"fmt"
	"strings"

	"github.com/gitcast/backend/internal/github"
)

// Classification is the derived presentation of one activity record.
type Classification struct {
	Action string
	URL    string
}

// Classify derives the action label and deep link for ev. Unknown event
// kinds fall back to the kind name (with the trailing "Event" stripped)
// and the repository URL.
func Classify(ev github.Event) Classification {
	repoURL := ev.Repo.HTMLURL()
	p := ev.Payload

	switch ev.Type {
	case "PushEvent":
		n := len(p.Commits)
		action := fmt.Sprintf("pushed %d commits", n)
		if n == 1 {
			action = "pushed 1 commit"
		}
		url := repoURL
		if n > 0 && p.Commits[0].SHA != "" {
			url = fmt.Sprintf("%s/commit/%s", repoURL, p.Commits[0].SHA)
		}
		return Classification{Action: action, URL: url}

	case "CreateEvent":
		refType := p.RefType
		if refType == "" {
			refType = "repository"
		}
		url := repoURL
		switch refType {
		case "branch":
			url = fmt.Sprintf("%s/tree/%s", repoURL, p.Ref)
		case "tag":
			url = fmt.Sprintf("%s/releases/tag/%s", repoURL, p.Ref)
		}
		return Classification{Action: "created " + refType, URL: url}

	case "PullRequestEvent":
		action := p.Action
		if action == "" {
			action = "updated"
		}
		url := fmt.Sprintf("%s/pull/%d", repoURL, p.Number)
		if p.PullRequest != nil && p.PullRequest.HTMLURL != "" {
			url = p.PullRequest.HTMLURL
		}
		return Classification{Action: action + " pull request", URL: url}

	case "IssuesEvent":
		action := p.Action
		if action == "" {
			action = "updated"
		}
		url := fmt.Sprintf("%s/issues/%d", repoURL, p.Number)
		if p.Issue != nil && p.Issue.HTMLURL != "" {
			url = p.Issue.HTMLURL
		}
		return Classification{Action: action + " issue", URL: url}

	case "IssueCommentEvent":
		url := repoURL
		if p.Issue != nil && p.Issue.HTMLURL != "" {
			url = p.Issue.HTMLURL
		}
		if p.Comment != nil && p.Comment.HTMLURL != "" {
			url = p.Comment.HTMLURL
		}
		return Classification{Action: "commented on issue", URL: url}

	case "PullRequestReviewCommentEvent":
		url := repoURL
		if p.PullRequest != nil && p.PullRequest.HTMLURL != "" {
			url = p.PullRequest.HTMLURL
		}
		if p.Comment != nil && p.Comment.HTMLURL != "" {
			url = p.Comment.HTMLURL
		}
		return Classification{Action: "commented on pull request", URL: url}

	case "CommitCommentEvent":
		url := repoURL
		if p.Comment != nil && p.Comment.HTMLURL != "" {
			url = p.Comment.HTMLURL
		}
		return Classification{Action: "commented on commit", URL: url}

	case "ForkEvent":
		url := repoURL
		if p.Forkee != nil && p.Forkee.HTMLURL != "" {
			url = p.Forkee.HTMLURL
		}
		return Classification{Action: "forked repository", URL: url}

	case "WatchEvent":
		return Classification{Action: "starred repository", URL: repoURL}

	default:
		return Classification{
			Action: strings.TrimSuffix(ev.Type, "Event"),
			URL:    repoURL,
		}
	}
}
