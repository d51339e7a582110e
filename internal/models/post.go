package models

import (
	"time"
)

// Post represents one ingested Bluesky post. The ID is the post's AT-URI as
// assigned by the upstream source and is the primary dedup key; a post with
// an empty ID is never persisted.
type Post struct {
	ID          string `validate:"required"`
	Author      string `validate:"required"`
	DisplayName string
	Title       string
	Text        string

	// CreatedAt is the raw timestamp string as reported by the source.
	// It is parsed into Timestamp during enrichment.
	CreatedAt string

	// Timestamp is the post's creation time in UTC. The zero value marks a
	// source timestamp that could not be parsed.
	Timestamp time.Time

	ExternalURL     string
	PageTitle       string
	MetaDescription string
}
