// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/taibuivan/passage/internal/platform/apperr"
	"github.com/taibuivan/passage/internal/platform/constants"
	"github.com/taibuivan/passage/internal/platform/ctxutil"
	"github.com/taibuivan/passage/internal/platform/respond"
	"github.com/taibuivan/passage/internal/platform/sec"
)

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*sec.AuthClaims, error)
}

// SessionValidator reports whether a server-side session is still usable.
type SessionValidator interface {
	ValidateSession(ctx context.Context, sessionToken string) (bool, error)
}

// Authenticate resolves the caller from the Authorization header.
//
// # Flow
//  1. No header: the request proceeds anonymously; [RequireAuth] decides later.
//  2. Accept "Bearer <token>" or a bare token and verify it via [TokenVerifier].
//  3. Password-reset capabilities are never accepted as bearer credentials.
//  4. Session-bound tokens must reference an active session, otherwise 401 SESSION_EXPIRED.
//  5. Inject [*sec.AuthClaims] into the request context for downstream use.
func Authenticate(verifier TokenVerifier, sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			token := ExtractToken(request.Header.Get(constants.HeaderAuthorization))
			if token == "" {
				next.ServeHTTP(writer, request)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				message := "Unauthorized: Invalid token"
				if errors.Is(err, sec.ErrExpired) {
					message = "Unauthorized: Token expired"
				}
				respond.Error(writer, request, apperr.Unauthorized(message))
				return
			}

			if claims.IsPasswordReset() {
				respond.Error(writer, request, apperr.Unauthorized("Unauthorized: Invalid token"))
				return
			}

			if claims.SessionBound() {
				valid, err := sessions.ValidateSession(request.Context(), claims.SessionToken)
				if err != nil {
					respond.Error(writer, request, apperr.Internal(err))
					return
				}
				if !valid {
					respond.Error(writer, request, apperr.SessionExpired())
					return
				}
			}

			ctxutil.RecordCaller(request.Context(), claims)
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// ExtractToken strips an optional case-insensitive "Bearer " prefix.
func ExtractToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Unauthorized: No token provided"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests if the authenticated user doesn't have the required role.
// It implies [RequireAuth].
func RequireRole(role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetAuthUser(request.Context())
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Unauthorized: No token provided"))
				return
			}

			if !sec.UserRole(claims.Role).AtLeast(role) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
