// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository is the credential view of the users table.
// Implementations never return accounts whose status is DELETED.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database failures
	*/
	FindByID(ctx context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account registered under email.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database failures
	*/
	FindByEmail(ctx context.Context, email string) (*User, error)

	/*
		UpdatePassword replaces only the user's password hash.

		Returns:
		  - error: apperr.NotFound when no row matched, or persistence failures
	*/
	UpdatePassword(ctx context.Context, userID, newHash string) error
}

// # Session Data Access

// SessionRepository persists server-tracked login sessions.
type SessionRepository interface {

	/*
		CreateExclusive deactivates every active session of session.UserID and
		inserts session as the only active one, atomically.

		Returns:
		  - error: Persistence failures
	*/
	CreateExclusive(ctx context.Context, session *Session) error

	/*
		FindActiveByTokenHash returns the active session with the given token hash.

		Returns:
		  - *Session: Hydrated entity
		  - error: apperr.NotFound or database failures
	*/
	FindActiveByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// Deactivate marks the session inactive. Unknown hashes are not an error.
	Deactivate(ctx context.Context, tokenHash string) error

	// DeactivateAllForUser marks every active session of the user inactive.
	DeactivateAllForUser(ctx context.Context, userID string) (int64, error)

	// ListActiveByUser returns active sessions, most recent first.
	ListActiveByUser(ctx context.Context, userID string) ([]*Session, error)

	// DeactivateExpired marks active sessions whose expiry is not after now inactive.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// # One-Time Code Data Access

// OTPRepository persists emailed one-time codes.
type OTPRepository interface {

	// Create stores a freshly issued code.
	Create(ctx context.Context, otp *OTP) error

	/*
		FindUnused returns an unused code matching (user, code hash, purpose).
		Expiry is not checked here.

		Returns:
		  - *OTP: Most recently issued match
		  - error: apperr.NotFound or database failures
	*/
	FindUnused(ctx context.Context, userID, codeHash string, purpose OTPPurpose) (*OTP, error)

	// MarkUsed flags every matching code as used and reports how many rows changed.
	MarkUsed(ctx context.Context, userID, codeHash string, purpose OTPPurpose) (int64, error)
}
