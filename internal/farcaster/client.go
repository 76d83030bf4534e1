// Package farcaster is a typed client for the Farcaster hub API: the
// per-user following list, bulk user metadata lookup, and the verified
// GitHub account directory.
package farcaster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gitcast/backend/internal/util"
)

const (
	pageLimit      = 100
	lookupChunk    = 100
	requestRetries = 3
	defaultTimeout = 30 * time.Second
)

// Profile is the Farcaster-side metadata for one identity.
type Profile struct {
	FID         int64  `json:"fid"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	PfpURL      string `json:"pfp_url"`
}

// Verification links a fid to a verified external account.
type Verification struct {
	FID      int64  `json:"fid"`
	Platform string `json:"platform"`
	Username string `json:"username"`
}

// Client talks to the hub API. All listing endpoints are cursor paginated;
// the client walks cursors internally and returns complete sets.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientParams contains configuration for creating a Client.
type ClientParams struct {
	BaseURL string
	APIKey  string
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

func NewClient(params ClientParams) *Client {
	return &Client{
		baseURL: params.BaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Transport: &headerTransport{
				headers: map[string]string{"x-api-key": params.APIKey},
				rt:      http.DefaultTransport,
			},
		},
	}
}

// Following returns every fid the given user follows, walking the cursor
// until the upstream reports no more pages.
func (c *Client) Following(ctx context.Context, fid int64) ([]int64, error) {
	var fids []int64
	cursor := ""
	for {
		query := url.Values{}
		query.Set("fid", strconv.FormatInt(fid, 10))
		query.Set("limit", strconv.Itoa(pageLimit))
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var page struct {
			Users []Profile `json:"users"`
			Next  struct {
				Cursor string `json:"cursor"`
			} `json:"next"`
		}
		if err := c.get(ctx, "/v1/following", query, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch following for fid %d: %w", fid, err)
		}

		for _, u := range page.Users {
			fids = append(fids, u.FID)
		}
		if page.Next.Cursor == "" {
			break
		}
		cursor = page.Next.Cursor
	}
	return fids, nil
}

// UsersByFIDs looks up profile metadata for the given fids, chunked to the
// upstream's bulk-lookup limit.
func (c *Client) UsersByFIDs(ctx context.Context, fids []int64) ([]Profile, error) {
	var profiles []Profile
	for _, chunk := range util.Chunk(fids, lookupChunk) {
		query := url.Values{}
		query.Set("fids", joinFIDs(chunk))

		var page struct {
			Users []Profile `json:"users"`
		}
		if err := c.get(ctx, "/v1/users", query, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch users: %w", err)
		}
		profiles = append(profiles, page.Users...)
	}
	return profiles, nil
}

// GithubVerifications returns the verified GitHub username for exactly the
// requested fids. Identities without a verification are simply absent from
// the result.
func (c *Client) GithubVerifications(ctx context.Context, fids []int64) (map[int64]string, error) {
	matches := make(map[int64]string)
	for _, chunk := range util.Chunk(fids, lookupChunk) {
		query := url.Values{}
		query.Set("platform", "github")
		query.Set("fids", joinFIDs(chunk))

		var page struct {
			Verifications []Verification `json:"verifications"`
		}
		if err := c.get(ctx, "/v1/verifications", query, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch verifications: %w", err)
		}
		collectGithub(matches, page.Verifications)
	}
	return matches, nil
}

// AllGithubVerifications walks the full verification directory, filtered
// to GitHub links. Used by the scheduled reconciliation, not the targeted
// pipeline stage.
func (c *Client) AllGithubVerifications(ctx context.Context) (map[int64]string, error) {
	matches := make(map[int64]string)
	cursor := ""
	for {
		query := url.Values{}
		query.Set("platform", "github")
		query.Set("limit", strconv.Itoa(pageLimit))
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var page struct {
			Verifications []Verification `json:"verifications"`
			Next          struct {
				Cursor string `json:"cursor"`
			} `json:"next"`
		}
		if err := c.get(ctx, "/v1/verifications", query, &page); err != nil {
			return nil, fmt.Errorf("failed to walk verification directory: %w", err)
		}

		collectGithub(matches, page.Verifications)
		if page.Next.Cursor == "" {
			break
		}
		cursor = page.Next.Cursor
	}
	return matches, nil
}

func collectGithub(into map[int64]string, verifications []Verification) {
	for _, v := range verifications {
		if v.Platform != "github" || v.Username == "" {
			continue
		}
		into[v.FID] = v.Username
	}
}

func joinFIDs(fids []int64) string {
	parts := make([]string, len(fids))
	for i, fid := range fids {
		parts[i] = strconv.FormatInt(fid, 10)
	}
	return strings.Join(parts, ",")
}

func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	return util.RetryErrWithContext(ctx, requestRetries, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("hub request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("hub returned %d: %s", resp.StatusCode, string(body))
		}
		return json.NewDecoder(resp.Body).Decode(v)
	})
}
