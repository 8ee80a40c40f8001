package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mbaird/fediback/internal/domain"
)

// Opener establishes archive sessions against a Supabase project's PostgREST
// API. Opening a session validates the configuration; it performs no network
// I/O, so an unreachable project surfaces on the first insert instead.
type Opener struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpener creates an Opener using the given HTTP client for all inserts.
func NewOpener(httpClient *http.Client, logger *slog.Logger) *Opener {
	return &Opener{
		httpClient: httpClient,
		logger:     logger,
	}
}

// Open validates the destination-store configuration and returns the archive
// session for one run.
func (o *Opener) Open(_ context.Context, cfg domain.SupabaseConfig) (domain.Archive, error) {
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse supabase url: %w", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("supabase url %q is not an absolute http(s) url", cfg.URL)
	}
	if cfg.ServiceKey == "" {
		return nil, fmt.Errorf("supabase service key is empty")
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		serviceKey: cfg.ServiceKey,
		httpClient: o.httpClient,
		logger:     o.logger,
	}, nil
}

// Client is one archive session. It inserts normalized records into the
// destination collections via PostgREST bulk inserts.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	logger     *slog.Logger
}

// InsertPosts archives posts into the named collection. A nil or empty slice
// is a no-op.
func (c *Client) InsertPosts(ctx context.Context, collection string, rows []domain.Post) error {
	if len(rows) == 0 {
		return nil
	}

	payload := make([]postRow, len(rows))
	for i, p := range rows {
		payload[i] = postRow{
			UserID:    p.AccountID,
			PostID:    p.ExternalID,
			Content:   p.Content,
			CreatedAt: p.CreatedAt,
		}
	}
	return c.insert(ctx, collection, payload, len(rows))
}

// InsertLikes archives likes into the named collection. A nil or empty slice
// is a no-op.
func (c *Client) InsertLikes(ctx context.Context, collection string, rows []domain.Like) error {
	if len(rows) == 0 {
		return nil
	}

	payload := make([]likeRow, len(rows))
	for i, l := range rows {
		payload[i] = likeRow{
			UserID:    l.AccountID,
			PostID:    l.ExternalID,
			CreatedAt: l.CreatedAt,
		}
	}
	return c.insert(ctx, collection, payload, len(rows))
}

func (c *Client) insert(ctx context.Context, collection string, payload any, count int) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal rows: %w", err)
	}

	requestURL := c.baseURL + "/rest/v1/" + collection
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", collection, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("insert into %s: read response: %w", collection, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("insert into %s: status %d: %s", collection, resp.StatusCode, string(respBody))
	}

	c.logger.Debug("rows archived", "collection", collection, "rows", count)
	return nil
}

type postRow struct {
	UserID    string    `json:"user_id"`
	PostID    string    `json:"post_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type likeRow struct {
	UserID    string    `json:"user_id"`
	PostID    string    `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
