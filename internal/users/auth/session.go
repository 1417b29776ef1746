// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/passage/internal/platform/apperr"
	"github.com/taibuivan/passage/internal/platform/constants"
	"github.com/taibuivan/passage/internal/platform/sec"
	"github.com/taibuivan/passage/pkg/uuid"
)

// DeviceInfo describes where a login came from. It is recorded for display
// and audit only.
type DeviceInfo struct {
	UserAgent string
	IPAddress string
}

// SessionManager issues, validates and invalidates server-side sessions.
//
// A user holds at most one active session: creating a session deactivates
// every prior one. Expiry is enforced lazily on validation; [SessionManager.PurgeExpired]
// additionally sweeps stale rows from a background job.
type SessionManager struct {
	sessions SessionRepository
	logger   *slog.Logger
	ttl      time.Duration
	now      func() time.Time
}

// SessionOption customises a [SessionManager].
type SessionOption func(*SessionManager)

// WithSessionClock overrides the time source.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) { m.now = now }
}

// WithSessionTTL overrides [constants.SessionTTL].
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(m *SessionManager) { m.ttl = ttl }
}

// NewSessionManager constructs a [SessionManager].
func NewSessionManager(sessions SessionRepository, logger *slog.Logger, opts ...SessionOption) *SessionManager {
	manager := &SessionManager{
		sessions: sessions,
		logger:   logger,
		ttl:      constants.SessionTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(manager)
	}
	return manager
}

/*
CreateSession starts a new session for userID, kicking out any prior one.

Returns:
  - string: The raw session token to embed in the bearer token
  - *Session: The persisted session row
  - error: Token generation or persistence failures
*/
func (manager *SessionManager) CreateSession(ctx context.Context, userID string, device DeviceInfo) (string, *Session, error) {
	token, err := sec.GenerateSecureToken()
	if err != nil {
		return "", nil, fmt.Errorf("auth_session_token_failed: %w", err)
	}

	now := manager.now()
	session := &Session{
		ID:                uuid.New(),
		UserID:            userID,
		TokenHash:         sec.HashToken(token),
		DeviceFingerprint: sec.DeviceFingerprint(device.UserAgent, device.IPAddress),
		IPAddress:         device.IPAddress,
		UserAgent:         device.UserAgent,
		IsActive:          true,
		ExpiresAt:         now.Add(manager.ttl),
		CreatedAt:         now,
	}

	if err := manager.sessions.CreateExclusive(ctx, session); err != nil {
		return "", nil, fmt.Errorf("auth_session_create_failed: %w", err)
	}

	manager.logger.Info("session_created",
		slog.String("user_id", userID),
		slog.String("session_id", session.ID),
		slog.String("device", session.DeviceFingerprint),
	)
	return token, session, nil
}

/*
ValidateSession reports whether token names an active, unexpired session.

Description: An active session found past its expiry is deactivated on the
spot, so every later call for the same token also returns false.
*/
func (manager *SessionManager) ValidateSession(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	tokenHash := sec.HashToken(token)
	session, err := manager.sessions.FindActiveByTokenHash(ctx, tokenHash)
	if err != nil {
		if apperr.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("auth_session_lookup_failed: %w", err)
	}

	if session.Expired(manager.now()) {
		if err := manager.sessions.Deactivate(ctx, tokenHash); err != nil {
			return false, fmt.Errorf("auth_session_expire_failed: %w", err)
		}
		manager.logger.Info("session_expired",
			slog.String("user_id", session.UserID),
			slog.String("session_id", session.ID),
		)
		return false, nil
	}

	return true, nil
}

// InvalidateSession marks the session for token inactive. It is idempotent.
func (manager *SessionManager) InvalidateSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := manager.sessions.Deactivate(ctx, sec.HashToken(token)); err != nil {
		return fmt.Errorf("auth_session_invalidate_failed: %w", err)
	}
	return nil
}

// InvalidateAllUserSessions ends every active session of userID.
func (manager *SessionManager) InvalidateAllUserSessions(ctx context.Context, userID string) error {
	count, err := manager.sessions.DeactivateAllForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("auth_session_invalidate_all_failed: %w", err)
	}

	manager.logger.Info("sessions_invalidated",
		slog.String("user_id", userID),
		slog.Int64("count", count),
	)
	return nil
}

// ListActive returns the user's active sessions that have not yet expired.
func (manager *SessionManager) ListActive(ctx context.Context, userID string) ([]*Session, error) {
	sessions, err := manager.sessions.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("auth_session_list_failed: %w", err)
	}

	now := manager.now()
	live := make([]*Session, 0, len(sessions))
	for _, session := range sessions {
		if !session.Expired(now) {
			live = append(live, session)
		}
	}
	return live, nil
}

// PurgeExpired deactivates every active session past its expiry.
func (manager *SessionManager) PurgeExpired(ctx context.Context) error {
	count, err := manager.sessions.DeactivateExpired(ctx, manager.now())
	if err != nil {
		return fmt.Errorf("auth_session_purge_failed: %w", err)
	}
	if count > 0 {
		manager.logger.Info("expired_sessions_purged", slog.Int64("count", count))
	}
	return nil
}
