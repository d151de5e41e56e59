// Package cache provides the TTL key/value store consulted before
// provider fetches and written after a successful merge. All backends
// evaluate expiry lazily at read time; background eviction is a space
// optimization, never a correctness requirement.
package cache

import "strings"

// Key builds a deterministic cache key from the lower-cased, trimmed
// (query, location) pair, optionally namespaced per provider so one
// provider's cached data can be refreshed without touching siblings.
func Key(query, location string, provider ...string) string {
	parts := []string{
		strings.ToLower(strings.TrimSpace(query)),
		strings.ToLower(strings.TrimSpace(location)),
	}
	parts = append(parts, provider...)
	return strings.Join(parts, "|")
}
