package igclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Failure signals of the remote profile source. Callers classify with
// errors.Is; anything else is treated as transient.
var (
	ErrNotExists          = errors.New("profile does not exist")
	ErrPrivateNotFollowed = errors.New("profile is private")
	ErrLoginRequired      = errors.New("login required")
)

// ProfileStats holds the raw public metrics returned by the source.
type ProfileStats struct {
	Username   string
	Followers  int64
	Following  int64
	PostsCount int64
}

// Source is the capability this pipeline needs from the remote provider:
// resolve one username into its public metrics or a failure signal.
type Source interface {
	Resolve(ctx context.Context, username string) (ProfileStats, error)
}

// HTTPClient resolves profiles against Instagram's web profile endpoint.
type HTTPClient struct {
	baseURL     string
	userAgent   string
	appID       string
	httpClient  *http.Client
	maxAttempts int
	baseBackoff time.Duration
}

const defaultAppID = "936619743392459"

func NewHTTPClient(userAgent string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL:     "https://www.instagram.com",
		userAgent:   userAgent,
		appID:       defaultAppID,
		httpClient:  &http.Client{Timeout: timeout},
		maxAttempts: 3,
		baseBackoff: 500 * time.Millisecond,
	}
}

func (c *HTTPClient) headers(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("X-IG-App-ID", c.appID)
	req.Header.Set("Accept", "application/json")
}

// Resolve fetches the public metrics for username. It maps the provider's
// failure modes onto the sentinel errors above and returns plain errors for
// anything else.
func (c *HTTPClient) Resolve(ctx context.Context, username string) (ProfileStats, error) {
	var out ProfileStats
	if username == "" {
		return out, errors.New("empty username")
	}
	u := fmt.Sprintf("%s/api/v1/users/web_profile_info/?username=%s", c.baseURL, url.QueryEscape(username))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return out, err
	}
	c.headers(req)
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return out, fmt.Errorf("@%s: %w", username, ErrNotExists)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return out, fmt.Errorf("@%s: %w", username, ErrLoginRequired)
	case resp.StatusCode >= 400:
		return out, fmt.Errorf("profile source status %d for @%s", resp.StatusCode, username)
	}
	var raw struct {
		Data struct {
			User *struct {
				Username  string `json:"username"`
				IsPrivate bool   `json:"is_private"`
				Followers struct {
					Count int64 `json:"count"`
				} `json:"edge_followed_by"`
				Following struct {
					Count int64 `json:"count"`
				} `json:"edge_follow"`
				Media struct {
					Count int64 `json:"count"`
				} `json:"edge_owner_to_timeline_media"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return out, fmt.Errorf("decode profile for @%s: %w", username, err)
	}
	user := raw.Data.User
	if user == nil {
		return out, fmt.Errorf("@%s: %w", username, ErrNotExists)
	}
	if user.IsPrivate {
		return out, fmt.Errorf("@%s: %w", username, ErrPrivateNotFollowed)
	}
	out = ProfileStats{
		Username:   username,
		Followers:  user.Followers.Count,
		Following:  user.Following.Count,
		PostsCount: user.Media.Count,
	}
	return out, nil
}

// doWithRetry retries 429 and 5xx responses with exponential backoff,
// honouring Retry-After when present. Other statuses are returned as-is.
func (c *HTTPClient) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	backoff := c.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.httpClient.Do(req.Clone(ctx))
		if err == nil {
			if resp.StatusCode != http.StatusTooManyRequests && (resp.StatusCode < 500 || resp.StatusCode > 599) {
				return resp, nil
			}
			lastErr = fmt.Errorf("profile source status %d", resp.StatusCode)
			wait := backoff
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					wait = time.Duration(secs) * time.Second
				}
			}
			_ = resp.Body.Close()
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
			continue
		}
		lastErr = err
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxAttempts, lastErr)
}
