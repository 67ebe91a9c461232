package metrics

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// GetRoutePath extracts the route pattern from the request context so
// metrics group by pattern rather than by concrete slug values.
func GetRoutePath(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	return NormalizePath(r.URL.Path)
}

// NormalizePath collapses dynamic path segments to keep label
// cardinality bounded.
func NormalizePath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}

	switch {
	case path == "/health", path == "/ready", path == "/metrics":
		return path
	case strings.HasPrefix(path, "/links"):
		return "/links/*"
	case strings.HasPrefix(path, "/auth"):
		return "/auth/*"
	case strings.HasPrefix(path, "/swagger"):
		return "/swagger/*"
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	switch len(segments) {
	case 1:
		return "/{slug}"
	case 2:
		if segments[1] == "preview" {
			return "/{slug}/preview"
		}
	}

	return path
}

// FormatStatusCode converts an integer status code to string
func FormatStatusCode(statusCode int) string {
	return strconv.Itoa(statusCode)
}
