// Package scraper extracts page metadata from external links embedded in
// posts. Enrichment is best-effort: every failure path yields empty strings
// and nothing propagates to the caller.
package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/mbeaudoin/bsky-ingest/internal/util"
)

// Some sites reject requests with default client signatures, so we present
// a browser-like User-Agent.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

const fetchTimeout = 10 * time.Second

// MetadataFetcher retrieves the title and description of an external page.
type MetadataFetcher interface {
	FetchPageMetadata(ctx context.Context, url string) (title, description string)
}

type Client struct {
	httpClient *http.Client
}

func New() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: fetchTimeout,
		},
	}
}

// FetchPageMetadata performs a single bounded-timeout GET and extracts the
// document title and a description, preferring og:description over the
// standard description meta tag. Any failure returns ("", "").
func (c *Client) FetchPageMetadata(ctx context.Context, rawURL string) (string, string) {
	if strings.TrimSpace(rawURL) == "" {
		return "", ""
	}

	pageURL := rawURL
	if normalized, err := util.NormalizeURL(rawURL); err == nil {
		pageURL = normalized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		slog.Debug("Metadata fetch skipped, bad URL", "url", rawURL, "error", err)
		return "", ""
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("Metadata fetch failed", "url", pageURL, "error", err)
		return "", ""
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		slog.Debug("Metadata fetch got non-OK status", "url", pageURL, "status", res.StatusCode)
		return "", ""
	}

	// Pages declare all sorts of legacy encodings; normalize to UTF-8
	// before handing the body to goquery.
	body, err := charset.NewReader(res.Body, res.Header.Get("Content-Type"))
	if err != nil {
		slog.Debug("Metadata charset detection failed", "url", pageURL, "error", err)
		return "", ""
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		slog.Debug("Metadata parse failed", "url", pageURL, "error", err)
		return "", ""
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	description := ""
	if og, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
		description = strings.TrimSpace(og)
	} else if meta, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		description = strings.TrimSpace(meta)
	}

	return title, description
}
