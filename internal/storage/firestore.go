package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mbeaudoin/bsky-ingest/internal/models"
)

const firestoreCollection = "posts"

// FirestoreStore persists posts in a Firestore collection. Post URIs contain
// slashes, which Firestore document IDs cannot, so the document ID is the
// SHA-256 of the URI and the URI itself is stored in a "uri" field.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(ctx context.Context, projectID string) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func firestoreDocID(postID string) string {
	hash := sha256.Sum256([]byte(postID))
	return hex.EncodeToString(hash[:])
}

// ExistingIDs lists the stored post URIs. Only the uri field is fetched.
func (s *FirestoreStore) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	iter := s.client.Collection(firestoreCollection).Select("uri").Documents(ctx)
	defer iter.Stop()

	ids := make(map[string]struct{})
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate posts: %w", err)
		}
		uri, err := doc.DataAt("uri")
		if err != nil {
			continue
		}
		if s, ok := uri.(string); ok && s != "" {
			ids[s] = struct{}{}
		}
	}
	return ids, nil
}

// AppendPosts writes the batch inside a single Firestore transaction so the
// append is all-or-nothing. Create fails on an already existing document,
// which keeps the store append-only by ID; an AlreadyExists outcome means a
// concurrent writer beat us to the same post and the batch is retried
// without it by the next run, so it is surfaced as an error here.
func (s *FirestoreStore) AppendPosts(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	collection := s.client.Collection(firestoreCollection)
	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		for _, post := range posts {
			doc := collection.Doc(firestoreDocID(post.ID))
			data := postDoc{
				URI:             post.ID,
				Author:          post.Author,
				DisplayName:     post.DisplayName,
				Title:           post.Title,
				Text:            post.Text,
				Timestamp:       post.Timestamp,
				ExternalURL:     post.ExternalURL,
				PageTitle:       post.PageTitle,
				MetaDescription: post.MetaDescription,
			}
			if err := tx.Create(doc, data); err != nil {
				if status.Code(err) == codes.AlreadyExists {
					return fmt.Errorf("post %s already exists: %w", post.ID, err)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append batch of %d posts: %w", len(posts), err)
	}

	slog.Info("Appended posts to Firestore", "count", len(posts))
	return nil
}

// postDoc is the Firestore document shape, with the post URI promoted to a
// queryable field.
type postDoc struct {
	URI             string    `firestore:"uri"`
	Author          string    `firestore:"author"`
	DisplayName     string    `firestore:"displayName"`
	Title           string    `firestore:"title,omitempty"`
	Text            string    `firestore:"text"`
	Timestamp       time.Time `firestore:"timestamp"`
	ExternalURL     string    `firestore:"externalURL,omitempty"`
	PageTitle       string    `firestore:"pageTitle,omitempty"`
	MetaDescription string    `firestore:"metaDescription,omitempty"`
}
