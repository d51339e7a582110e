package processor

import (
	"context"

	"github.com/mbeaudoin/bsky-ingest/internal/bluesky"
	"github.com/mbeaudoin/bsky-ingest/internal/models"
)

// FeedSource abstracts the upstream feed API.
type FeedSource interface {
	GetAuthorFeed(ctx context.Context, actor string, limit int) ([]bluesky.FeedItem, error)
}

// PostStore abstracts the persistence layer for ingested posts.
type PostStore interface {
	ExistingIDs(ctx context.Context) (map[string]struct{}, error)
	AppendPosts(ctx context.Context, posts []models.Post) error
}
