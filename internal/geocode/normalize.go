// Package geocode turns partial, noisy address text into a short list of
// plausible street addresses inside a single target region.
//
// The pipeline is:
//
//	Normalize -> Cache -> upstream Search -> IsAcceptable -> Shape -> Cache
//
// Every stage except the upstream search is pure or in-memory. The Resolver
// owns the cache and never surfaces upstream failures to its callers: a
// failed lookup degrades to an empty list.
package geocode

import (
	"strings"
	"unicode/utf8"
)

// MinQueryLength is the shortest normalized query that reaches the cache or
// the network. Shorter input resolves to an empty list without side effects.
const MinQueryLength = 3

// Normalize trims leading and trailing whitespace and collapses internal runs
// of whitespace to a single space. It always returns a string, possibly empty.
func Normalize(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// CacheKey derives the cache key for a raw query: normalized and lower-cased.
func CacheKey(raw string) string {
	return strings.ToLower(Normalize(raw))
}

// IsResolvable reports whether a normalized query is long enough to resolve.
func IsResolvable(normalized string) bool {
	return utf8.RuneCountInString(normalized) >= MinQueryLength
}
