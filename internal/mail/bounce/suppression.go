// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package bounce keeps the outbound mail suppression list current.
//
// Addresses enter the list two ways: synchronously when an SMTP send fails
// with a permanent error, and asynchronously when a polled bounce mailbox
// yields delivery-failure reports. The mail gateway consults the list
// before every send.
package bounce

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/passage/internal/platform/broker"
	"github.com/taibuivan/passage/internal/platform/constants"
	"github.com/taibuivan/passage/pkg/pointer"
	"github.com/taibuivan/passage/pkg/uuid"
)

// Suppression is an address excluded from outbound mail.
type Suppression struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Reason    string    `json:"reason"`
	Subject   *string   `json:"subject,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// # Suppression Data Access

// Store persists the suppression list.
type Store interface {

	/*
		Exists reports whether the address is already suppressed.

		Parameters:
		  - ctx: context.Context
		  - email: string (lowercase)

		Returns:
		  - bool: true when a row exists
		  - error: Database retrieval failures
	*/
	Exists(ctx context.Context, email string) (bool, error)

	/*
		Insert adds a row unless one already exists for the same address.

		Returns:
		  - bool: true when a row was written
		  - error: Persistence failures
	*/
	Insert(ctx context.Context, entry *Suppression) (bool, error)

	// List returns every suppressed address, newest first.
	List(ctx context.Context) ([]*Suppression, error)

	// Delete removes the address and reports whether a row was removed.
	Delete(ctx context.Context, email string) (bool, error)
}

// Service owns suppression list policy.
type Service struct {
	store     Store
	publisher broker.Publisher
	logger    *slog.Logger
}

// NewService constructs a suppression [Service].
func NewService(store Store, publisher broker.Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, publisher: publisher, logger: logger}
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Add suppresses an address. Adding an already suppressed address is a no-op
// and reports false. subject is optional context for the failure.
func (s *Service) Add(ctx context.Context, email, reason, subject string) (bool, error) {
	email = NormalizeEmail(email)

	exists, err := s.store.Exists(ctx, email)
	if err != nil {
		return false, err
	}
	if exists {
		s.logger.DebugContext(ctx, "suppression_already_present", slog.String("email", email))
		return false, nil
	}

	entry := &Suppression{
		ID:        uuid.New(),
		Email:     email,
		Reason:    reason,
		Subject:   pointer.NonEmpty(subject),
		CreatedAt: time.Now().UTC(),
	}

	// Insert is conflict-safe, so a concurrent writer between Exists and here is harmless.
	inserted, err := s.store.Insert(ctx, entry)
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil
	}

	s.logger.InfoContext(ctx, "email_suppressed",
		slog.String("email", email),
		slog.String("reason", reason),
	)
	broker.Emit(ctx, s.publisher, s.logger, constants.EventMailSuppressed, entry)

	return true, nil
}

// IsSuppressed reports whether mail to the address must be skipped.
// A lookup failure is logged and treated as not suppressed.
func (s *Service) IsSuppressed(ctx context.Context, email string) bool {
	exists, err := s.store.Exists(ctx, NormalizeEmail(email))
	if err != nil {
		s.logger.WarnContext(ctx, "suppression_lookup_failed_open",
			slog.String("email", email),
			slog.Any("error", err),
		)
		return false
	}
	return exists
}

// List returns the full suppression list.
func (s *Service) List(ctx context.Context) ([]*Suppression, error) {
	return s.store.List(ctx)
}

// Remove lifts a suppression. Removing an absent address is a no-op.
func (s *Service) Remove(ctx context.Context, email string) (bool, error) {
	email = NormalizeEmail(email)

	removed, err := s.store.Delete(ctx, email)
	if err != nil {
		return false, err
	}
	if removed {
		s.logger.InfoContext(ctx, "email_unsuppressed", slog.String("email", email))
	}
	return removed, nil
}
