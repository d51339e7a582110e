package util

import (
	"fmt"
	"net/url"
	"strings"
)

// trackingParams are query parameters that identify a click source rather
// than a resource. Stripping them keeps external links stable across posts
// that share the same target.
var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"fbclid", "gclid", "mc_cid", "mc_eid", "ref_src",
}

// NormalizeURL validates an embedded external link and strips tracking
// parameters. Only http and https URLs are accepted.
func NormalizeURL(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL, err
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return rawURL, fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return rawURL, fmt.Errorf("URL %q has no host", rawURL)
	}

	query := parsed.Query()
	for _, param := range trackingParams {
		query.Del(param)
	}
	parsed.RawQuery = query.Encode()

	if len(parsed.Path) > 1 && strings.HasSuffix(parsed.Path, "/") {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
		parsed.RawPath = ""
	}

	return parsed.String(), nil
}
