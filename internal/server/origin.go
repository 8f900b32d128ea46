package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// NewCheckOrigin returns a CheckOrigin function for the WebSocket upgrader.
// allowed is a comma-separated list of origins; entries may be full URLs, only
// scheme and host are compared. An empty list accepts every origin. Requests
// without an Origin header (non-browser clients) are always accepted.
func NewCheckOrigin(allowed string) func(r *http.Request) bool {
	origins := make(map[string]struct{})
	for _, raw := range strings.Split(allowed, ",") {
		if origin := extractOrigin(strings.TrimSpace(raw)); origin != "" {
			origins[origin] = struct{}{}
		}
	}

	return func(r *http.Request) bool {
		if len(origins) == 0 {
			return true
		}

		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}

		if _, ok := origins[extractOrigin(origin)]; ok {
			return true
		}

		slog.Warn("WebSocket origin rejected", "origin", origin, "remote_addr", r.RemoteAddr)
		return false
	}
}

func extractOrigin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}
