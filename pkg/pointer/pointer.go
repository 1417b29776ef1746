// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pointer provides generic helpers for optional (pointer) fields.
package pointer

// To returns a pointer to the provided value.
func To[T any](v T) *T {
	return &v
}

// NonEmpty returns nil for an empty string and a pointer to s otherwise.
func NonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ValOr dereferences p, falling back to def for nil.
func ValOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
