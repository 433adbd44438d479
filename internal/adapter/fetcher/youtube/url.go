package youtube

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ytaudio/tubetune/internal/domain"
)

// NormalizeURL canonicalizes a source URL for resolution and cache keying.
// Tracking and playlist suffixes on a watch URL are stripped so two URLs
// differing only in volatile parameters collapse into one: a watch URL keeps
// only its "v" parameter, a playlist URL only its "list" parameter, and
// youtu.be short links become watch URLs.
func NormalizeURL(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", domain.NewResolutionError(raw, "invalid URL", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", domain.NewResolutionError(raw, "invalid URL: missing scheme or host", nil)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return "", domain.NewResolutionError(raw, fmt.Sprintf("unsupported URL scheme: %s", parsed.Scheme), nil)
	}

	host := normalizeHostname(parsed)
	query := parsed.Query()

	if host == "youtu.be" {
		id := strings.Trim(parsed.Path, "/")
		if id == "" {
			return "", domain.NewResolutionError(raw, "short link carries no video id", nil)
		}
		return watchURLForID(id), nil
	}

	if v := query.Get("v"); v != "" {
		return watchURLForID(v), nil
	}

	if list := query.Get("list"); list != "" {
		return "https://www.youtube.com/playlist?list=" + url.QueryEscape(list), nil
	}

	// Not a recognized watch/playlist shape; strip the query entirely so
	// volatile suffixes never leak into cache keys.
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String(), nil
}

// IsPlaylistURL reports whether a normalized URL addresses a collection.
func IsPlaylistURL(normalized string) bool {
	parsed, err := url.Parse(normalized)
	if err != nil {
		return false
	}
	return parsed.Query().Get("list") != ""
}

// normalizeHostname returns the hostname lowercased with any "www." prefix removed.
func normalizeHostname(parsed *url.URL) string {
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// watchURLForID builds the canonical watch URL for a video id.
func watchURLForID(id string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}
