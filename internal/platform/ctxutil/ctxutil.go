// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil reads and writes the request-scoped values Passage keeps in
// a [context.Context]: correlation id, logger, and the authenticated caller.
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/passage/internal/platform/ctxkey"
	"github.com/taibuivan/passage/internal/platform/sec"
)

// # Request Tracing

// WithRequestID attaches the correlation id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.RequestID, id)
}

// GetRequestID returns the correlation id, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.RequestID).(string)
	return id
}

// # Structured Logging

// WithLogger attaches the per-request logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.Logger, logger)
}

// GetLogger returns the per-request logger, falling back to [slog.Default].
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.Logger).(*slog.Logger)
	if !ok || logger == nil {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithAuthUser attaches verified claims.
func WithAuthUser(ctx context.Context, claims *sec.AuthClaims) context.Context {
	return context.WithValue(ctx, ctxkey.Claims, claims)
}

// GetAuthUser returns the verified claims, or nil for anonymous requests.
func GetAuthUser(ctx context.Context) *sec.AuthClaims {
	claims, _ := ctx.Value(ctxkey.Claims).(*sec.AuthClaims)
	return claims
}

// Caller is filled in by the authentication gate and read by the access log,
// which wraps the gate and so never sees the gate's derived context.
type Caller struct {
	UserID string
	Role   string
}

// WithCallerSlot attaches an empty [Caller] and returns it.
func WithCallerSlot(ctx context.Context) (context.Context, *Caller) {
	caller := &Caller{}
	return context.WithValue(ctx, ctxkey.Caller, caller), caller
}

// RecordCaller copies the identity from claims into the slot, if one exists.
func RecordCaller(ctx context.Context, claims *sec.AuthClaims) {
	if caller, ok := ctx.Value(ctxkey.Caller).(*Caller); ok && claims != nil {
		caller.UserID = claims.UserID
		caller.Role = claims.Role
	}
}
