package models

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeQuery returns the canonical form of a user query: percent-decoded,
// case-folded, with surrounding and repeated whitespace collapsed.
//
// Two queries that normalize to the same string are the same cache entry.
func NormalizeQuery(q string) string {
	s := strings.TrimSpace(q)
	if decoded, err := url.PathUnescape(s); err == nil {
		s = decoded
	}
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// IsResourceURL reports whether q is a direct http(s) resource URL rather
// than a free-text business name.
func IsResourceURL(q string) bool {
	u, err := url.Parse(strings.TrimSpace(q))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// LooksLikeURL reports whether q carries a URL scheme at all. A query that
// looks like a URL but is not a valid resource URL is malformed.
func LooksLikeURL(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	return strings.HasPrefix(q, "http://") || strings.HasPrefix(q, "https://")
}
