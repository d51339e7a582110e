// Package storage provides the append-only post store consumed by the
// ingest pipeline. Two backends are available: SQLite for the default
// single-operator setup, and Firestore for cloud deployments.
package storage

import (
	"context"

	"github.com/mbeaudoin/bsky-ingest/internal/models"
)

// Store is the persistence contract consumed by the pipeline.
type Store interface {
	// ExistingIDs returns the set of every previously appended post ID.
	// The pipeline re-reads it before each run, so it must reflect all
	// successfully appended posts at the moment of the call.
	ExistingIDs(ctx context.Context) (map[string]struct{}, error)

	// AppendPosts appends a batch of posts atomically: either every post
	// in the batch is persisted or none is.
	AppendPosts(ctx context.Context, posts []models.Post) error

	Close() error
}
