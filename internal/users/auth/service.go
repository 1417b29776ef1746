// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/passage/internal/platform/apperr"
	"github.com/taibuivan/passage/internal/platform/broker"
	"github.com/taibuivan/passage/internal/platform/constants"
	"github.com/taibuivan/passage/internal/platform/mailer"
	"github.com/taibuivan/passage/internal/platform/sec"
	"github.com/taibuivan/passage/pkg/uuid"
)

// # Contracts

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	Issue(claims sec.AuthClaims, ttl time.Duration) (string, error)
	Verify(token string) (*sec.AuthClaims, error)
}

// MailDispatcher sends mail without blocking the caller.
type MailDispatcher interface {
	Dispatch(ctx context.Context, msg mailer.Message)
}

// Service implements the login and password lifecycle use cases.
type Service struct {
	users     UserRepository
	otps      OTPRepository
	sessions  *SessionManager
	tokens    TokenIssuer
	mail      MailDispatcher
	publisher broker.Publisher
	logger    *slog.Logger
	logoURL   string
	now       func() time.Time
}

// Option customises a [Service].
type Option func(*Service)

// WithLogoURL sets the image rendered at the top of outgoing mail.
func WithLogoURL(url string) Option {
	return func(s *Service) { s.logoURL = url }
}

// WithClock overrides the time source used for code expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	users UserRepository,
	otps OTPRepository,
	sessions *SessionManager,
	tokens TokenIssuer,
	mail MailDispatcher,
	publisher broker.Publisher,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	service := &Service{
		users:     users,
		otps:      otps,
		sessions:  sessions,
		tokens:    tokens,
		mail:      mail,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

// LoginResult is a freshly established session.
type LoginResult struct {
	Token string
	User  *User
}

/*
Login validates credentials and opens the caller's only active session.

Description: Unknown emails and wrong passwords share one message. An
inactive account is rejected after the password check and no session is
created for it.

Returns:
  - *LoginResult: Bearer token bound to the new session, plus the user
  - err: Unauthorized or internal failures
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := service.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized(msgInvalidCredentials)
		}
		return nil, err
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	if !user.IsActive() {
		service.logger.Warn("login_rejected_inactive", slog.String("user_id", user.ID))
		return nil, apperr.Unauthorized(msgInactiveAccount)
	}

	sessionToken, _, err := service.sessions.CreateSession(ctx, user.ID, DeviceInfo{
		UserAgent: input.UserAgent,
		IPAddress: input.IPAddress,
	})
	if err != nil {
		return nil, err
	}

	token, err := service.tokens.Issue(sec.AuthClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         string(user.Role),
		Status:       string(user.Status),
		SessionToken: sessionToken,
	}, sec.LoginTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	return &LoginResult{Token: token, User: user}, nil
}

// Logout ends the session the caller's token is bound to.
// Tokens without a session are accepted and nothing is changed.
func (service *Service) Logout(ctx context.Context, claims *sec.AuthClaims) error {
	if claims == nil || !claims.SessionBound() {
		return nil
	}
	return service.sessions.InvalidateSession(ctx, claims.SessionToken)
}

// LogoutAll ends every session of userID.
func (service *Service) LogoutAll(ctx context.Context, userID string) error {
	return service.sessions.InvalidateAllUserSessions(ctx, userID)
}

// Sessions lists the user's live sessions.
func (service *Service) Sessions(ctx context.Context, userID string) ([]*Session, error) {
	return service.sessions.ListActive(ctx, userID)
}

// # Password Recovery

/*
RequestPasswordReset issues a 6-digit code and emails it to the account.

Description: An unknown email is reported as not found. Earlier unused codes
stay valid until they expire. The email is dispatched in the background and
its failure does not undo the stored code.

Returns:
  - err: NotFound, or code generation and persistence failures
*/
func (service *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := service.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := sec.GenerateNumericCode()
	if err != nil {
		return fmt.Errorf("auth_service_generate_code_failed: %w", err)
	}

	now := service.now()
	otp := &OTP{
		ID:        uuid.New(),
		UserID:    user.ID,
		CodeHash:  sec.HashToken(code),
		Purpose:   PurposePasswordReset,
		ExpiresAt: now.Add(constants.OTPTTL),
		IsUsed:    false,
		CreatedAt: now,
	}
	if err := service.otps.Create(ctx, otp); err != nil {
		return fmt.Errorf("auth_service_save_code_failed: %w", err)
	}

	service.mail.Dispatch(ctx, mailer.Message{
		To:      user.Email,
		Subject: resetMailSubject,
		HTML:    renderResetEmail(service.logoURL, user, code, now),
	})

	broker.Emit(ctx, service.publisher, service.logger, constants.EventPasswordResetRequested, map[string]string{
		"user_id": user.ID,
		"email":   user.Email,
	})

	service.logger.Info("password_reset_requested", slog.String("user_id", user.ID))
	return nil
}

/*
VerifyResetCode exchanges a valid emailed code for a reset token.

Description: The code is not consumed here. The returned token is valid for
[sec.ResetTokenTTL] and only usable with [Service.ResetPassword].

Returns:
  - string: Signed reset token
  - err: NotFound for unknown accounts, BadRequest for missing, used or expired codes
*/
func (service *Service) VerifyResetCode(ctx context.Context, email, code string) (string, error) {
	user, err := service.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	otp, err := service.otps.FindUnused(ctx, user.ID, sec.HashToken(code), PurposePasswordReset)
	if err != nil {
		if apperr.IsNotFound(err) {
			return "", apperr.BadRequest(msgInvalidCode)
		}
		return "", err
	}

	if service.now().After(otp.ExpiresAt) {
		return "", apperr.BadRequest(msgInvalidCode)
	}

	token, err := service.tokens.Issue(sec.AuthClaims{
		UserID:  user.ID,
		Email:   user.Email,
		Purpose: sec.PurposePasswordReset,
	}, sec.ResetTokenTTL)
	if err != nil {
		return "", fmt.Errorf("auth_service_reset_token_failed: %w", err)
	}

	return token, nil
}

// ResetInput carries a reset request. Email and Code are optional.
type ResetInput struct {
	Token    string
	Password string
	Email    string
	Code     string
}

/*
ResetPassword completes the forgot-password flow.

Description: The reset token alone authorises the change. When email and
code are supplied the matching code is consumed, but a failure to do so does
not block the reset. Every session of the user is ended afterwards.

Returns:
  - err: BadRequest for a bad token, NotFound for a missing user, or storage failures
*/
func (service *Service) ResetPassword(ctx context.Context, input ResetInput) error {
	claims, err := service.tokens.Verify(input.Token)
	if err != nil || !claims.IsPasswordReset() {
		return apperr.BadRequest(msgInvalidResetToken)
	}

	user, err := service.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return err
	}

	if input.Email != "" && input.Code != "" {
		if _, err := service.otps.MarkUsed(ctx, user.ID, sec.HashToken(input.Code), PurposePasswordReset); err != nil {
			service.logger.Warn("reset_code_consume_failed",
				slog.String("user_id", user.ID),
				slog.Any("error", err),
			)
		}
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	if err := service.users.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return err
	}

	if err := service.sessions.InvalidateAllUserSessions(ctx, user.ID); err != nil {
		service.logger.Warn("reset_session_cleanup_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	service.logger.Info("password_reset_completed", slog.String("user_id", user.ID))
	return nil
}

/*
ChangePassword updates the password of an authenticated user after checking
the current one.

Returns:
  - err: NotFound, BadRequest for a wrong current password, or storage failures
*/
func (service *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperr.BadRequest(msgInvalidCurrentPass)
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	if err := service.users.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return err
	}

	service.logger.Info("password_changed", slog.String("user_id", userID))
	return nil
}
