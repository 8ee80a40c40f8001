package supabase

import (
	"context"
	"encoding/json"
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

func newOpener(t *testing.T, httpClient *http.Client) *Opener {
	t.Helper()
	return NewOpener(httpClient, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestOpenValidatesConfiguration(t *testing.T) {
	opener := newOpener(t, http.DefaultClient)

	testCases := []struct {
		name string
		cfg  domain.SupabaseConfig
	}{
		{name: "empty url", cfg: domain.SupabaseConfig{ServiceKey: "key"}},
		{name: "relative url", cfg: domain.SupabaseConfig{URL: "not-a-url", ServiceKey: "key"}},
		{name: "wrong scheme", cfg: domain.SupabaseConfig{URL: "ftp://example.com", ServiceKey: "key"}},
		{name: "missing service key", cfg: domain.SupabaseConfig{URL: "https://example.supabase.co"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := opener.Open(context.Background(), tc.cfg)
			require.Error(t, err)
		})
	}
}

func TestOpenAcceptsValidConfiguration(t *testing.T) {
	opener := newOpener(t, http.DefaultClient)

	archive, err := opener.Open(context.Background(), domain.SupabaseConfig{
		URL:        "https://example.supabase.co",
		ServiceKey: "service-key",
	})
	require.NoError(t, err)
	require.NotNil(t, archive)
}

func TestInsertPostsSendsPostgRESTBulkInsert(t *testing.T) {
	var (
		gotPath    string
		gotHeaders http.Header
		gotBody    []map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeaders = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	opener := newOpener(t, server.Client())
	archive, err := opener.Open(context.Background(), domain.SupabaseConfig{
		URL:        server.URL,
		ServiceKey: "service-key",
	})
	require.NoError(t, err)

	createdAt := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	err = archive.InsertPosts(context.Background(), domain.CollectionBlueskyPosts, []domain.Post{
		{AccountID: "alice", ExternalID: "at://post/1", Content: "hello", CreatedAt: createdAt},
	})
	require.NoError(t, err)

	assert.Equal(t, "/rest/v1/bluesky_posts", gotPath)
	assert.Equal(t, "service-key", gotHeaders.Get("apikey"))
	assert.Equal(t, "Bearer service-key", gotHeaders.Get("Authorization"))
	assert.Equal(t, "return=minimal", gotHeaders.Get("Prefer"))

	require.Len(t, gotBody, 1)
	assert.Equal(t, "alice", gotBody[0]["user_id"])
	assert.Equal(t, "at://post/1", gotBody[0]["post_id"])
	assert.Equal(t, "hello", gotBody[0]["content"])
}

func TestInsertLikesOmitsContent(t *testing.T) {
	var gotBody []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	opener := newOpener(t, server.Client())
	archive, err := opener.Open(context.Background(), domain.SupabaseConfig{URL: server.URL, ServiceKey: "key"})
	require.NoError(t, err)

	err = archive.InsertLikes(context.Background(), domain.CollectionMastodonLikes, []domain.Like{
		{AccountID: "42", ExternalID: "900", CreatedAt: time.Now()},
	})
	require.NoError(t, err)

	require.Len(t, gotBody, 1)
	assert.NotContains(t, gotBody[0], "content")
}

func TestInsertSurfacesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"duplicate key value violates unique constraint"}`))
	}))
	defer server.Close()

	opener := newOpener(t, server.Client())
	archive, err := opener.Open(context.Background(), domain.SupabaseConfig{URL: server.URL, ServiceKey: "key"})
	require.NoError(t, err)

	err = archive.InsertPosts(context.Background(), domain.CollectionBlueskyPosts, []domain.Post{{ExternalID: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 409")
	assert.Contains(t, err.Error(), "duplicate key")
	assert.Contains(t, err.Error(), domain.CollectionBlueskyPosts)
}

func TestInsertEmptySliceIsNoOp(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	opener := newOpener(t, server.Client())
	archive, err := opener.Open(context.Background(), domain.SupabaseConfig{URL: server.URL, ServiceKey: "key"})
	require.NoError(t, err)

	require.NoError(t, archive.InsertPosts(context.Background(), domain.CollectionBlueskyPosts, nil))
	require.NoError(t, archive.InsertLikes(context.Background(), domain.CollectionBlueskyLikes, nil))
	assert.Zero(t, requests)
}
