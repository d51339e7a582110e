package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mbeaudoin/bsky-ingest/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "posts.sqlite"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_AppendAndExistingIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ids, err := store.ExistingIDs(ctx)
	if err != nil {
		t.Fatalf("ExistingIDs() error = %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("Expected empty store, got %d ids", len(ids))
	}

	posts := []models.Post{
		{
			ID:          "at://did:plc:a/app.bsky.feed.post/p1",
			Author:      "a.bsky.social",
			DisplayName: "Alice",
			Text:        "first",
			Timestamp:   time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:          "at://did:plc:a/app.bsky.feed.post/p2",
			Author:      "a.bsky.social",
			Text:        "second",
			ExternalURL: "https://example.com",
			PageTitle:   "Example",
		},
	}
	if err := store.AppendPosts(ctx, posts); err != nil {
		t.Fatalf("AppendPosts() error = %v", err)
	}

	ids, err = store.ExistingIDs(ctx)
	if err != nil {
		t.Fatalf("ExistingIDs() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Expected 2 ids, got %d", len(ids))
	}
	for _, p := range posts {
		if _, ok := ids[p.ID]; !ok {
			t.Errorf("Missing id %s", p.ID)
		}
	}
}

func TestSQLiteStore_AppendIsIdempotentByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	post := models.Post{ID: "at://p1", Author: "a.bsky.social", Text: "once"}
	if err := store.AppendPosts(ctx, []models.Post{post}); err != nil {
		t.Fatalf("first AppendPosts() error = %v", err)
	}

	// Re-appending the same ID must neither fail nor duplicate.
	post.Text = "twice"
	if err := store.AppendPosts(ctx, []models.Post{post}); err != nil {
		t.Fatalf("second AppendPosts() error = %v", err)
	}

	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM posts").Scan(&count); err != nil {
		t.Fatalf("count query: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 row, got %d", count)
	}
	var text string
	if err := store.db.QueryRow("SELECT text FROM posts WHERE id = ?", post.ID).Scan(&text); err != nil {
		t.Fatalf("text query: %v", err)
	}
	if text != "once" {
		t.Errorf("Expected original row kept, got text %q", text)
	}
}

func TestSQLiteStore_UnknownTimestampStoredAsNull(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	post := models.Post{ID: "at://p1", Author: "a.bsky.social", Text: "no clock"}
	if err := store.AppendPosts(ctx, []models.Post{post}); err != nil {
		t.Fatalf("AppendPosts() error = %v", err)
	}

	var nullCount int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM posts WHERE timestamp IS NULL").Scan(&nullCount); err != nil {
		t.Fatalf("null query: %v", err)
	}
	if nullCount != 1 {
		t.Errorf("Expected zero-value timestamp stored as NULL, got %d null rows", nullCount)
	}
}

func TestSQLiteStore_EmptyBatchIsNoop(t *testing.T) {
	store := newTestStore(t)
	if err := store.AppendPosts(context.Background(), nil); err != nil {
		t.Fatalf("AppendPosts(nil) error = %v", err)
	}
}

func TestSQLiteStore_ReopenSeesPersistedPosts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "posts.sqlite")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := store.AppendPosts(ctx, []models.Post{{ID: "at://p1", Author: "a.bsky.social"}}); err != nil {
		t.Fatalf("AppendPosts() error = %v", err)
	}
	store.Close()

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	ids, err := reopened.ExistingIDs(ctx)
	if err != nil {
		t.Fatalf("ExistingIDs() after reopen error = %v", err)
	}
	if _, ok := ids["at://p1"]; !ok {
		t.Error("Expected persisted id visible after reopen")
	}
}
