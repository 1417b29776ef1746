// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package cors owns the set of browser origins allowed to call the API.
//
// The set is seeded from configuration at startup and can be changed at
// runtime by a super administrator. Every reader and writer goes through
// [Origins], which serialises access with a read/write mutex.
package cors

import (
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/taibuivan/passage/internal/platform/apperr"
)

// Origins is a concurrency-safe registry of approved origins.
type Origins struct {
	mu      sync.RWMutex
	origins map[string]struct{}
}

// NewOrigins seeds a registry. Invalid entries are skipped.
func NewOrigins(seed []string) *Origins {
	registry := &Origins{origins: make(map[string]struct{}, len(seed))}
	for _, origin := range seed {
		if normalized, err := Normalize(origin); err == nil {
			registry.origins[normalized] = struct{}{}
		}
	}
	return registry
}

// Allowed reports whether the given Origin header value is approved.
func (o *Origins) Allowed(origin string) bool {
	normalized, err := Normalize(origin)
	if err != nil {
		return false
	}

	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.origins[normalized]
	return ok
}

// List returns a sorted snapshot of approved origins.
func (o *Origins) List() []string {
	o.mu.RLock()
	out := make([]string, 0, len(o.origins))
	for origin := range o.origins {
		out = append(out, origin)
	}
	o.mu.RUnlock()

	slices.Sort(out)
	return out
}

// Add approves an origin. Adding an existing origin is a no-op.
func (o *Origins) Add(origin string) (string, error) {
	normalized, err := Normalize(origin)
	if err != nil {
		return "", err
	}

	o.mu.Lock()
	o.origins[normalized] = struct{}{}
	o.mu.Unlock()
	return normalized, nil
}

// Remove revokes an origin. Removing an unknown origin is a no-op.
func (o *Origins) Remove(origin string) {
	normalized, err := Normalize(origin)
	if err != nil {
		return
	}

	o.mu.Lock()
	delete(o.origins, normalized)
	o.mu.Unlock()
}

// Replace swaps the entire set atomically. Nothing changes if any entry is invalid.
func (o *Origins) Replace(origins []string) error {
	next := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		normalized, err := Normalize(origin)
		if err != nil {
			return err
		}
		next[normalized] = struct{}{}
	}

	o.mu.Lock()
	o.origins = next
	o.mu.Unlock()
	return nil
}

// Normalize reduces an origin to lowercase scheme://host[:port].
func Normalize(origin string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", apperr.BadRequest("origin: must be an http(s) origin such as https://app.example.com")
	}
	return strings.ToLower(parsed.Scheme + "://" + parsed.Host), nil
}
