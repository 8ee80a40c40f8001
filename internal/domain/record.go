package domain

import "time"

// Destination-store collections, one per provider and record type.
const (
	CollectionBlueskyPosts  = "bluesky_posts"
	CollectionBlueskyLikes  = "bluesky_likes"
	CollectionMastodonPosts = "mastodon_posts"
	CollectionMastodonLikes = "mastodon_likes"
)

// Post is a normalized post fetched from a provider. It exists only for the
// duration of the insert call that persists it.
type Post struct {
	// AccountID is the user_id the row is archived under.
	AccountID string

	// ExternalID is the platform-native post id (AT-URI for Bluesky,
	// status id for Mastodon), unique per platform and account.
	ExternalID string

	// Content is the post body. May be empty.
	Content string

	// CreatedAt is the platform's timestamp for the post.
	CreatedAt time.Time
}

// Like is a normalized like/favourite fetched from a provider. Likes carry
// no content of their own, only a reference to the liked post.
type Like struct {
	AccountID  string
	ExternalID string
	CreatedAt  time.Time
}
