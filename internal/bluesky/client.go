package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const defaultPDS = "https://bsky.social"

// PostRecordType is the record $type tag identifying an ordinary feed post.
const PostRecordType = "app.bsky.feed.post"

// rateLimitCooldown is how long to wait before retrying a 429 response.
const rateLimitCooldown = 5 * time.Second

// Client is a minimal Bluesky/AT Protocol API client covering session
// creation and author feed reads.
type Client struct {
	pds        string
	httpClient *http.Client
	limiter    *rate.Limiter

	// populated after Login
	accessJwt string

	// cooldown between retries of a rate-limited request; overridable in tests
	cooldown time.Duration
}

// NewClient creates a new Bluesky API client. If pds is empty, it defaults
// to https://bsky.social. Outbound feed requests are paced to at most one
// every five seconds so a long account list doesn't hammer the PDS.
func NewClient(pds string) *Client {
	if pds == "" {
		pds = defaultPDS
	}
	return &Client{
		pds: pds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:  rate.NewLimiter(rate.Every(5*time.Second), 1),
		cooldown: rateLimitCooldown,
	}
}

// Login authenticates with the PDS and stores the session token. Use an App
// Password, not the account password.
func (c *Client) Login(ctx context.Context, identifier, password string) error {
	body := map[string]string{
		"identifier": identifier,
		"password":   password,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pds+"/xrpc/com.atproto.server.createSession", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindTransport, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiErrorFromStatus(resp.StatusCode, respBody)
	}

	var session createSessionResponse
	if err := json.Unmarshal(respBody, &session); err != nil {
		return &APIError{Kind: KindParse, Err: err}
	}
	if session.AccessJwt == "" {
		return &APIError{Kind: KindParse, Err: fmt.Errorf("createSession response missing accessJwt")}
	}

	c.accessJwt = session.AccessJwt
	return nil
}

// GetAuthorFeed fetches the most recent posts for one account. It issues a
// single paged request; pagination beyond the first page is not attempted.
//
// A 429 response is never surfaced to the caller: the client waits a fixed
// cooldown and retries the same request until a non-rate-limit response
// arrives or the context is cancelled. Any other failure is returned as an
// *APIError for the caller to isolate per account.
func (c *Client) GetAuthorFeed(ctx context.Context, actor string, limit int) ([]FeedItem, error) {
	if c.accessJwt == "" {
		return nil, fmt.Errorf("not authenticated: call Login first")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Kind: KindTransport, Err: err}
	}

	params := url.Values{}
	params.Set("actor", actor)
	params.Set("limit", strconv.Itoa(limit))
	feedURL := c.pds + "/xrpc/app.bsky.feed.getAuthorFeed?" + params.Encode()

	for {
		items, retryable, err := c.fetchFeedOnce(ctx, feedURL)
		if err == nil {
			return items, nil
		}
		if !retryable {
			return nil, err
		}

		slog.Warn("Rate-limited by PDS, cooling down", "actor", actor, "cooldown", c.cooldown)
		select {
		case <-ctx.Done():
			return nil, &APIError{Kind: KindTransport, Err: ctx.Err()}
		case <-time.After(c.cooldown):
		}
	}
}

// fetchFeedOnce performs one author feed request. retryable is true only for
// a rate-limit response.
func (c *Client) fetchFeedOnce(ctx context.Context, feedURL string) (items []FeedItem, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessJwt)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, &APIError{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, &APIError{Kind: KindTransport, Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, &APIError{Kind: KindRateLimited, StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, apiErrorFromStatus(resp.StatusCode, respBody)
	}

	var feed authorFeedResponse
	if err := json.Unmarshal(respBody, &feed); err != nil {
		return nil, false, &APIError{Kind: KindParse, Err: err}
	}

	return feed.Feed, false, nil
}

type createSessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
	Handle    string `json:"handle"`
}

type authorFeedResponse struct {
	Feed []FeedItem `json:"feed"`
}

// FeedItem is one envelope from an author feed response.
type FeedItem struct {
	Post FeedPost `json:"post"`
}

// FeedPost carries the post URI, author info, and the record body.
type FeedPost struct {
	URI    string `json:"uri"`
	Author Author `json:"author"`
	Record Record `json:"record"`
}

// Author identifies the account that wrote a post.
type Author struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
}

// Record is the post record body.
type Record struct {
	Type      string `json:"$type"`
	CreatedAt string `json:"createdAt"`
	Text      string `json:"text"`
	Embed     *Embed `json:"embed,omitempty"`
}

// Embed holds an optional embedded external link.
type Embed struct {
	External *External `json:"external,omitempty"`
}

// External is an embedded external link card.
type External struct {
	URI         string `json:"uri"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
