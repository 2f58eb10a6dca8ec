package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern represents a regex pattern and its corresponding normalized template.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

// pathPatterns defines the list of patterns for dynamic routes.
// Patterns are evaluated in order from most specific to least specific.
// Pre-compiled at initialization so normalization stays cheap per request.
var pathPatterns = []*PathPattern{
	{Pattern: regexp.MustCompile(`^/articles/[0-9a-f]{32}/similar$`), Template: "/articles/:id/similar"},
	{Pattern: regexp.MustCompile(`^/articles/[0-9a-f]{32}/state$`), Template: "/articles/:id/state"},
	{Pattern: regexp.MustCompile(`^/articles/[0-9a-f]{32}$`), Template: "/articles/:id"},
}

// NormalizePath normalizes dynamic URL paths to prevent metrics label
// cardinality explosion. Paths carrying article identifiers collapse to a
// template (e.g. /articles/:id/similar); static paths pass through unchanged.
//
// Query parameters and trailing slashes are stripped before matching.
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}

	// Static paths like /healthz and /metrics pass through unchanged.
	return path
}
