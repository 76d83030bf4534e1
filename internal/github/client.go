package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gitcast/backend/pkg/logger"

	"golang.org/x/sync/semaphore"
)

// ErrRateLimited is returned when the API quota is exhausted. Callers
// treat it as transient: the enclosing message stays unacknowledged and
// is redelivered later.
var ErrRateLimited = errors.New("github: rate limit exhausted")

const (
	perPage        = 100
	maxConcurrent  = 4
	lowQuotaDelay  = 2 * time.Second
	defaultTimeout = 30 * time.Second
)

// Client is a typed client for the GitHub REST API, covering the per-user
// public event list and the starred-repository list. It watches the
// X-RateLimit-Remaining header and slows down before the quota runs out.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	maxEventPages int
	lowQuota      int64

	sem       *semaphore.Weighted
	remaining atomic.Int64
}

// ClientParams contains configuration for creating a Client.
type ClientParams struct {
	BaseURL string
	Token   string

	// MaxEventPages bounds how many event pages are fetched per user.
	MaxEventPages int
	// RateLimitThreshold is the remaining-quota level below which the
	// client serializes requests and inserts a delay.
	RateLimitThreshold int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

func NewClient(params ClientParams) *Client {
	headers := map[string]string{
		"Accept":               "application/vnd.github.star+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if params.Token != "" {
		headers["Authorization"] = "Bearer " + params.Token
	}

	maxPages := params.MaxEventPages
	if maxPages <= 0 {
		maxPages = 3
	}

	c := &Client{
		baseURL: params.BaseURL,
		token:   params.Token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Transport: &headerTransport{
				headers: headers,
				rt:      http.DefaultTransport,
			},
		},
		maxEventPages: maxPages,
		lowQuota:      params.RateLimitThreshold,
		sem:           semaphore.NewWeighted(maxConcurrent),
	}
	c.remaining.Store(int64(^uint64(0) >> 1))
	return c
}

// UserEvents fetches the most recent public events for login, up to the
// configured page bound. Pagination stops early on a short page.
func (c *Client) UserEvents(ctx context.Context, login string) ([]Event, error) {
	var events []Event
	for page := 1; page <= c.maxEventPages; page++ {
		url := fmt.Sprintf("%s/users/%s/events/public?per_page=%d&page=%d", c.baseURL, login, perPage, page)

		var batch []Event
		if err := c.get(ctx, url, &batch); err != nil {
			return nil, err
		}
		events = append(events, batch...)
		if len(batch) < perPage {
			break
		}
	}
	return events, nil
}

// StarredRepos fetches the full starred-repository list for login.
func (c *Client) StarredRepos(ctx context.Context, login string) ([]StarredRepo, error) {
	var starred []StarredRepo
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/users/%s/starred?per_page=%d&page=%d", c.baseURL, login, perPage, page)

		var batch []StarredRepo
		if err := c.get(ctx, url, &batch); err != nil {
			return nil, err
		}
		starred = append(starred, batch...)
		if len(batch) < perPage {
			break
		}
	}
	return starred, nil
}

func (c *Client) get(ctx context.Context, url string, v any) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	// Back off before the quota is gone, not after.
	if c.remaining.Load() < c.lowQuota {
		logger.Warn("[Github] Quota low, slowing down", "remaining", c.remaining.Load())
		select {
		case <-time.After(lowQuotaDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	if rem := resp.Header.Get("X-RateLimit-Remaining"); rem != "" {
		if n, err := strconv.ParseInt(rem, 10, 64); err == nil {
			c.remaining.Store(n)
		}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case (resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests) && c.remaining.Load() <= 0:
		return ErrRateLimited
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("github returned %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
