package util

import (
	"strings"
	"time"
)

// ParseTimestamp parses a source-reported creation time into UTC. Malformed
// or empty values coerce to the zero time, the explicit "unknown" marker,
// rather than an error: a bad timestamp must never reject a post.
func ParseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
