package mastodon

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbaird/fediback/internal/domain"
)

func testAccount(instanceURL string) domain.MastodonAccount {
	return domain.MastodonAccount{
		InstanceURL: instanceURL,
		UserID:      "42",
		APIToken:    "token-123",
	}
}

func TestFetchRecentNormalizesStatusesAndFavourites(t *testing.T) {
	var authHeaders []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/api/v1/accounts/42/statuses":
			w.Write([]byte(`[
				{"id":"101","content":"<p>hello world</p>","created_at":"2026-03-09T08:00:00.000Z"},
				{"id":"102","content":"<p>second toot</p>","created_at":"2026-03-09T09:00:00.000Z"}
			]`))
		case "/api/v1/favourites":
			w.Write([]byte(`[
				{"id":"900","content":"<p>nice post</p>","created_at":"2026-03-08T20:00:00.000Z"}
			]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	posts, likes, err := client.FetchRecent(context.Background(), testAccount(server.URL))
	require.NoError(t, err)

	require.Len(t, posts, 2)
	assert.Equal(t, "101", posts[0].ExternalID)
	assert.Equal(t, "<p>hello world</p>", posts[0].Content)
	assert.Equal(t, time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC), posts[0].CreatedAt.UTC())
	assert.Equal(t, "42", posts[0].AccountID)

	require.Len(t, likes, 1)
	assert.Equal(t, "900", likes[0].ExternalID)

	for _, h := range authHeaders {
		assert.Equal(t, "Bearer token-123", h)
	}
}

func TestFetchRecentRejectedTokenIsAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"The access token is invalid"}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, _, err := client.FetchRecent(context.Background(), testAccount(server.URL))

	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, domain.ProviderMastodon, authErr.Platform)
	assert.Equal(t, "42", authErr.Account)
	assert.Contains(t, err.Error(), "access token is invalid")
}

func TestFetchRecentServerErrorIsFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("instance is down"))
	}))
	defer server.Close()

	client := NewClient(server.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, _, err := client.FetchRecent(context.Background(), testAccount(server.URL))

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.Status)
	assert.Equal(t, "instance is down", fetchErr.Body)
}

func TestFetchRecentMalformedPayloadIsFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"this": "is not a status array"}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, _, err := client.FetchRecent(context.Background(), testAccount(server.URL))

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
}

func TestFetchRecentFavouritesFailureSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/favourites" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, _, err := client.FetchRecent(context.Background(), testAccount(server.URL))

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.URL, "/api/v1/favourites")
}
