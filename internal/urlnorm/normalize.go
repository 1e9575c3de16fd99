// Package urlnorm canonicalizes URLs so that the same resource found by
// several providers collapses to a single key.
package urlnorm

import (
	"net/url"
	"strings"
)

const defaultScheme = "https"

// Normalize returns the canonical form of raw: scheme://host/path with the
// host and path lower-cased, trailing slashes removed (root stays "/"), and
// query, fragment and userinfo dropped. Inputs without a scheme get https.
// Whitespace-only input yields "". Inputs that cannot be parsed are returned
// trimmed but otherwise unchanged.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	candidate := trimmed
	switch {
	case strings.HasPrefix(candidate, "//"):
		candidate = defaultScheme + ":" + candidate
	case !strings.Contains(candidate, "://"):
		candidate = defaultScheme + "://" + candidate
	}

	parsed, err := url.Parse(candidate)
	if err != nil || parsed.Host == "" {
		return trimmed
	}

	path := strings.TrimRight(strings.ToLower(parsed.EscapedPath()), "/")
	if path == "" {
		path = "/"
	}

	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host) + path
}

// Seen is the per-run set of canonical URLs. The zero value is ready to use;
// it is not safe for concurrent use.
type Seen struct {
	keys map[string]struct{}
}

// Add records key and reports whether it was not present before.
func (s *Seen) Add(key string) bool {
	if s.keys == nil {
		s.keys = map[string]struct{}{}
	}
	if _, ok := s.keys[key]; ok {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

// Len returns the number of distinct keys recorded.
func (s *Seen) Len() int {
	return len(s.keys)
}
