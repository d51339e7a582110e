package bluesky

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies an upstream API failure.
type ErrorKind int

const (
	// KindRateLimited is consumed internally by the feed retry loop and
	// never returned to callers.
	KindRateLimited ErrorKind = iota
	KindNotFound
	KindUnauthorized
	KindTransport
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindTransport:
		return "transport"
	case KindParse:
		return "parse"
	}
	return "unknown"
}

// APIError is a tagged upstream failure. StatusCode is zero for transport
// and parse failures that never produced an HTTP status.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bluesky api %s error: %v", e.Kind, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("bluesky api %s error (status %d): %s", e.Kind, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("bluesky api %s error (status %d)", e.Kind, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func apiErrorFromStatus(status int, body []byte) *APIError {
	kind := KindTransport
	switch status {
	case http.StatusNotFound, http.StatusBadRequest:
		// The PDS reports unknown actors as 400 InvalidRequest.
		kind = KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = KindUnauthorized
	}
	return &APIError{Kind: kind, StatusCode: status, Body: string(body)}
}
