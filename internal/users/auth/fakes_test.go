// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/passage/internal/platform/apperr"
	"github.com/taibuivan/passage/internal/platform/mailer"
	"github.com/taibuivan/passage/internal/users/auth"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// # Clock

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// # Users

type memoryUsers struct {
	mu   sync.Mutex
	rows map[string]*auth.User
}

func newMemoryUsers(users ...*auth.User) *memoryUsers {
	store := &memoryUsers{rows: make(map[string]*auth.User)}
	for _, user := range users {
		store.rows[user.ID] = user
	}
	return store
}

func (s *memoryUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.rows[id]
	if !ok || user.Status == auth.StatusDeleted {
		return nil, apperr.NotFound("User")
	}
	copied := *user
	return &copied, nil
}

func (s *memoryUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.rows {
		if strings.EqualFold(user.Email, email) && user.Status != auth.StatusDeleted {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (s *memoryUsers) UpdatePassword(_ context.Context, userID, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.rows[userID]
	if !ok || user.Status == auth.StatusDeleted {
		return apperr.NotFound("User")
	}
	user.PasswordHash = newHash
	return nil
}

func (s *memoryUsers) hash(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[id].PasswordHash
}

// # Sessions

type memorySessions struct {
	mu      sync.Mutex
	rows    []*auth.Session
	failAll error
}

func (s *memorySessions) CreateExclusive(_ context.Context, session *auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return s.failAll
	}
	for _, row := range s.rows {
		if row.UserID == session.UserID {
			row.IsActive = false
		}
	}
	copied := *session
	copied.IsActive = true
	s.rows = append(s.rows, &copied)
	return nil
}

func (s *memorySessions) FindActiveByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	for _, row := range s.rows {
		if row.TokenHash == tokenHash && row.IsActive {
			copied := *row
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Session")
}

func (s *memorySessions) Deactivate(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.TokenHash == tokenHash {
			row.IsActive = false
		}
	}
	return nil
}

func (s *memorySessions) DeactivateAllForUser(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, row := range s.rows {
		if row.UserID == userID && row.IsActive {
			row.IsActive = false
			count++
		}
	}
	return count, nil
}

func (s *memorySessions) ListActiveByUser(_ context.Context, userID string) ([]*auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*auth.Session, 0)
	for _, row := range s.rows {
		if row.UserID == userID && row.IsActive {
			copied := *row
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memorySessions) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, row := range s.rows {
		if row.IsActive && !now.Before(row.ExpiresAt) {
			row.IsActive = false
			count++
		}
	}
	return count, nil
}

func (s *memorySessions) activeFor(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, row := range s.rows {
		if row.UserID == userID && row.IsActive {
			count++
		}
	}
	return count
}

func (s *memorySessions) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// # One-Time Codes

type memoryOTPs struct {
	mu   sync.Mutex
	rows []*auth.OTP
}

func (s *memoryOTPs) Create(_ context.Context, otp *auth.OTP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *otp
	s.rows = append(s.rows, &copied)
	return nil
}

func (s *memoryOTPs) FindUnused(_ context.Context, userID, codeHash string, purpose auth.OTPPurpose) (*auth.OTP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.rows) - 1; i >= 0; i-- {
		row := s.rows[i]
		if row.UserID == userID && row.CodeHash == codeHash && row.Purpose == purpose && !row.IsUsed {
			copied := *row
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Verification code")
}

func (s *memoryOTPs) MarkUsed(_ context.Context, userID, codeHash string, purpose auth.OTPPurpose) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, row := range s.rows {
		if row.UserID == userID && row.CodeHash == codeHash && row.Purpose == purpose && !row.IsUsed {
			row.IsUsed = true
			count++
		}
	}
	return count, nil
}

func (s *memoryOTPs) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// # Mail

type recordingMail struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *recordingMail) Dispatch(_ context.Context, msg mailer.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
}

func (m *recordingMail) messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}
