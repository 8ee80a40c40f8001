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
	"time"

	"github.com/mbaird/fediback/internal/domain"
)

const defaultPDS = "https://bsky.social"

// pageLimit bounds the author feed and likes pages fetched per account.
const pageLimit = 100

// Client fetches recent posts and likes for Bluesky accounts over the AT
// Protocol XRPC API. The client itself is stateless; each FetchRecent call
// establishes its own session, so concurrent calls for different accounts
// never share session data.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Bluesky client using the given HTTP client for all
// remote calls.
func NewClient(httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
	}
}

// session holds the per-call authentication state from createSession.
type session struct {
	service   string
	accessJwt string
	did       string
}

// FetchRecent logs in with the account's app password and retrieves one page
// of the author feed and one page of the account's likes, both scoped to the
// authenticated identity.
func (c *Client) FetchRecent(ctx context.Context, account domain.BlueskyAccount) ([]domain.Post, []domain.Like, error) {
	sess, err := c.login(ctx, account)
	if err != nil {
		return nil, nil, &domain.AuthError{
			Platform: domain.ProviderBluesky,
			Account:  account.Username,
			Err:      err,
		}
	}

	c.logger.Debug("bluesky session established", "handle", account.Username, "did", sess.did)

	feed, err := c.feedPage(ctx, sess, "/xrpc/app.bsky.feed.getAuthorFeed")
	if err != nil {
		return nil, nil, err
	}
	liked, err := c.feedPage(ctx, sess, "/xrpc/app.bsky.feed.getActorLikes")
	if err != nil {
		return nil, nil, err
	}

	posts := make([]domain.Post, 0, len(feed.Feed))
	for _, item := range feed.Feed {
		posts = append(posts, domain.Post{
			AccountID:  account.Username,
			ExternalID: item.Post.URI,
			Content:    item.Post.Record.Text,
			CreatedAt:  item.Post.IndexedAt,
		})
	}

	likes := make([]domain.Like, 0, len(liked.Feed))
	for _, item := range liked.Feed {
		likes = append(likes, domain.Like{
			AccountID:  account.Username,
			ExternalID: item.Post.URI,
			CreatedAt:  item.Post.IndexedAt,
		})
	}

	return posts, likes, nil
}

// login authenticates with the PDS and returns the session token. Fails if
// the exchange is rejected or does not yield a usable session.
func (c *Client) login(ctx context.Context, account domain.BlueskyAccount) (*session, error) {
	service := account.InstanceURL
	if service == "" {
		service = defaultPDS
	}

	body := map[string]string{
		"identifier": account.Username,
		"password":   account.Password,
	}

	var resp createSessionResponse
	if err := c.post(ctx, service, "/xrpc/com.atproto.server.createSession", body, &resp); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if resp.AccessJwt == "" || resp.DID == "" {
		return nil, fmt.Errorf("create session: response carried no usable session")
	}

	return &session{
		service:   service,
		accessJwt: resp.AccessJwt,
		did:       resp.DID,
	}, nil
}

// feedPage fetches one page of a feed-shaped endpoint (author feed or actor
// likes) for the session's own DID.
func (c *Client) feedPage(ctx context.Context, sess *session, path string) (*feedResponse, error) {
	query := url.Values{}
	query.Set("actor", sess.did)
	query.Set("limit", fmt.Sprintf("%d", pageLimit))

	var resp feedResponse
	if err := c.get(ctx, sess, path, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, service, path string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, service+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

func (c *Client) get(ctx context.Context, sess *session, path string, query url.Values, result any) error {
	requestURL := sess.service + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return &domain.FetchError{URL: requestURL, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+sess.accessJwt)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.FetchError{URL: requestURL, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.FetchError{URL: requestURL, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.FetchError{URL: requestURL, Status: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return &domain.FetchError{URL: requestURL, Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	return nil
}

type createSessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
	Handle    string `json:"handle"`
}

type feedResponse struct {
	Feed []feedItem `json:"feed"`
}

type feedItem struct {
	Post feedPost `json:"post"`
}

type feedPost struct {
	URI       string    `json:"uri"`
	IndexedAt time.Time `json:"indexedAt"`
	Record    struct {
		Text      string `json:"text"`
		CreatedAt string `json:"createdAt"`
	} `json:"record"`
}
