// Package pathutil provides URL path helpers for the query API: extracting
// article identifiers from paths and normalizing paths for metrics labels.
package pathutil

import (
	"errors"
	"strings"
)

// ErrInvalidID is returned when the article ID in the URL path is invalid.
var ErrInvalidID = errors.New("invalid article id")

// idLength matches the hex length of a content-addressed article identifier.
const idLength = 32

// ExtractArticleID extracts a 32-character hex article identifier from a URL
// path. It removes the given prefix and suffix and validates what remains.
//
// Example:
//
//	id, err := ExtractArticleID("/articles/0a1b.../similar", "/articles/", "/similar")
func ExtractArticleID(path, prefix, suffix string) (string, error) {
	id := strings.TrimPrefix(path, prefix)
	id = strings.TrimSuffix(id, suffix)
	if len(id) != idLength || !isLowerHex(id) {
		return "", ErrInvalidID
	}
	return id, nil
}

func isLowerHex(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
