package mastodon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mbaird/fediback/internal/domain"
)

// Client fetches recent statuses and favourites for Mastodon accounts. All
// calls are bearer-token authenticated against the account's home instance;
// there is no separate login step. The client holds no per-account state.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Mastodon client using the given HTTP client for all
// remote calls.
func NewClient(httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
	}
}

// FetchRecent retrieves one page of the account's statuses and one page of
// its favourites using the supplied API token.
func (c *Client) FetchRecent(ctx context.Context, account domain.MastodonAccount) ([]domain.Post, []domain.Like, error) {
	instance := strings.TrimRight(account.InstanceURL, "/")

	var statuses []status
	statusesURL := fmt.Sprintf("%s/api/v1/accounts/%s/statuses", instance, account.UserID)
	if err := c.get(ctx, account, statusesURL, &statuses); err != nil {
		return nil, nil, err
	}

	var favourites []status
	if err := c.get(ctx, account, instance+"/api/v1/favourites", &favourites); err != nil {
		return nil, nil, err
	}

	posts := make([]domain.Post, 0, len(statuses))
	for _, st := range statuses {
		posts = append(posts, domain.Post{
			AccountID:  account.UserID,
			ExternalID: st.ID,
			Content:    st.Content,
			CreatedAt:  st.CreatedAt,
		})
	}

	likes := make([]domain.Like, 0, len(favourites))
	for _, st := range favourites {
		likes = append(likes, domain.Like{
			AccountID:  account.UserID,
			ExternalID: st.ID,
			CreatedAt:  st.CreatedAt,
		})
	}

	c.logger.Debug("mastodon fetch complete",
		"userId", account.UserID,
		"statuses", len(posts),
		"favourites", len(likes),
	)

	return posts, likes, nil
}

func (c *Client) get(ctx context.Context, account domain.MastodonAccount, requestURL string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return &domain.FetchError{URL: requestURL, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+account.APIToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.FetchError{URL: requestURL, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.FetchError{URL: requestURL, Err: fmt.Errorf("read response: %w", err)}
	}

	// The instance rejecting the token is an authentication failure, not a
	// fetch failure.
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &domain.AuthError{
			Platform: domain.ProviderMastodon,
			Account:  account.UserID,
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.FetchError{URL: requestURL, Status: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return &domain.FetchError{URL: requestURL, Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	return nil
}

// status is the subset of a Mastodon status (or favourited status) this
// backup cares about.
type status struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
