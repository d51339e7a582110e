// Package processor implements the ingest pipeline: fetch each configured
// account's feed, filter already-seen posts, enrich the survivors with page
// metadata, and persist the batch.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mbeaudoin/bsky-ingest/internal/bluesky"
	"github.com/mbeaudoin/bsky-ingest/internal/models"
	"github.com/mbeaudoin/bsky-ingest/internal/scraper"
	"github.com/mbeaudoin/bsky-ingest/internal/util"
	"github.com/mbeaudoin/bsky-ingest/internal/validator"
)

// Processor runs one full ingest pass.
type Processor interface {
	Run(ctx context.Context) error
}

type PostIngestor struct {
	feed      FeedSource
	store     PostStore
	metadata  scraper.MetadataFetcher
	validate  *validator.Validator
	accounts  []string
	feedLimit int
}

func New(feed FeedSource, store PostStore, metadata scraper.MetadataFetcher, accounts []string, feedLimit int) *PostIngestor {
	return &PostIngestor{
		feed:      feed,
		store:     store,
		metadata:  metadata,
		validate:  validator.New(),
		accounts:  accounts,
		feedLimit: feedLimit,
	}
}

// Run executes one ingest pass. Per-account fetch failures are logged and
// skipped; only a failure to read or append the store is returned.
func (p *PostIngestor) Run(ctx context.Context) error {
	// Refresh known IDs every run so dedup stays correct across runs and
	// across writes we didn't make.
	existing, err := p.store.ExistingIDs(ctx)
	if err != nil {
		slog.Error("Failed to load existing post IDs", "error", err)
		return fmt.Errorf("load existing post ids: %w", err)
	}

	collected := p.collectPosts(ctx, existing)
	fresh := p.dedupePosts(collected, existing)
	if len(fresh) == 0 {
		slog.Info("No new posts collected.")
		return nil
	}
	slog.Info("Found new posts", "count", len(fresh))

	enriched := p.enrichPosts(ctx, fresh)
	if len(enriched) == 0 {
		slog.Info("No new posts to insert.")
		return nil
	}

	if err := p.store.AppendPosts(ctx, enriched); err != nil {
		slog.Error("Failed to append post batch", "count", len(enriched), "error", err)
		return fmt.Errorf("append %d posts: %w", len(enriched), err)
	}

	slog.Info("Ingest run complete", "persisted", len(enriched))
	return nil
}

// collectPosts fetches every configured account's feed in order. One
// account's failure never prevents processing of the accounts after it.
func (p *PostIngestor) collectPosts(ctx context.Context, existing map[string]struct{}) []models.Post {
	var posts []models.Post
	for _, account := range p.accounts {
		items, err := p.feed.GetAuthorFeed(ctx, account, p.feedLimit)
		if err != nil {
			slog.Error("Error fetching account feed", "account", account, "error", err)
			continue
		}

		for _, item := range items {
			record := item.Post.Record
			if record.Type != bluesky.PostRecordType {
				continue
			}
			if _, seen := existing[item.Post.URI]; seen {
				continue
			}

			post := models.Post{
				ID:          item.Post.URI,
				Author:      account,
				DisplayName: item.Post.Author.DisplayName,
				Text:        strings.TrimSpace(record.Text),
				CreatedAt:   record.CreatedAt,
			}
			if record.Embed != nil && record.Embed.External != nil {
				post.Title = record.Embed.External.Title
				post.ExternalURL = record.Embed.External.URI
			}
			posts = append(posts, post)
		}
	}
	return posts
}

// dedupePosts drops posts that fail validation (no usable ID), posts the
// store already holds, and duplicate IDs within the batch. The same post
// can arrive via multiple accounts; the first occurrence wins, so account
// order decides attribution.
func (p *PostIngestor) dedupePosts(posts []models.Post, existing map[string]struct{}) []models.Post {
	seen := make(map[string]struct{}, len(posts))
	fresh := posts[:0]
	for _, post := range posts {
		if err := p.validate.ValidateStruct(post); err != nil {
			slog.Warn("Dropping invalid post", "id", post.ID, "author", post.Author, "error", err)
			continue
		}
		if _, ok := existing[post.ID]; ok {
			continue
		}
		if _, ok := seen[post.ID]; ok {
			continue
		}
		seen[post.ID] = struct{}{}
		fresh = append(fresh, post)
	}
	return fresh
}

// enrichPosts parses the source timestamp and fills in page metadata for
// posts with an external link. Enrichment is best-effort and never drops or
// blocks a post.
func (p *PostIngestor) enrichPosts(ctx context.Context, posts []models.Post) []models.Post {
	for i := range posts {
		posts[i].Timestamp = util.ParseTimestamp(posts[i].CreatedAt)
		if posts[i].ExternalURL == "" {
			continue
		}
		title, description := p.metadata.FetchPageMetadata(ctx, posts[i].ExternalURL)
		posts[i].PageTitle = title
		posts[i].MetaDescription = description
	}
	return posts
}
