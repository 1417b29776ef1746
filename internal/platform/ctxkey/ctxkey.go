// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey defines the typed context keys shared by middleware and handlers.
package ctxkey

type key uint8

const (
	// RequestID holds the X-Request-ID correlation value.
	RequestID key = iota + 1

	// Claims holds the verified [sec.AuthClaims] of the caller.
	Claims

	// Logger holds the per-request [*log/slog.Logger].
	Logger

	// Caller holds the mutable slot the access log reads after the handler returns.
	Caller
)
