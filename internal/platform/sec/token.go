// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, token signing,
// secret generation) from the domain logic. Services depend on the small
// interfaces they need; [TokenCodec] is the single implementation.
package sec

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Token Lifetimes

const (
	// DefaultTokenTTL applies when a caller issues a token without a lifetime.
	DefaultTokenTTL = 30 * 24 * time.Hour

	// LoginTokenTTL is the lifetime of the bearer token returned by login.
	LoginTokenTTL = 24 * time.Hour

	// ResetTokenTTL is the lifetime of the capability returned by verify-reset-code.
	ResetTokenTTL = 15 * time.Minute
)

// # Token Purposes

const (
	// PurposeAccess marks a token that may be presented as a bearer credential.
	PurposeAccess = "access"

	// PurposePasswordReset marks a token that can only complete a password reset.
	PurposePasswordReset = "password_reset"
)

// # Verification Errors

var (
	ErrNoToken          = errors.New("sec: no token supplied")
	ErrInvalidSignature = errors.New("sec: invalid token signature")
	ErrExpired          = errors.New("sec: token expired")
	ErrMalformed        = errors.New("sec: malformed token")
)

// AuthClaims represents the payload embedded inside a bearer token.
//
// SessionToken links the token to a revocable server-side session. A token
// carrying one is only honoured while that session remains active.
type AuthClaims struct {
	jwt.RegisteredClaims

	UserID       string `json:"id"`
	Email        string `json:"email"`
	Role         string `json:"role,omitempty"`
	Status       string `json:"status,omitempty"`
	SessionToken string `json:"session_token,omitempty"`
	Purpose      string `json:"purpose,omitempty"`
}

// SessionBound reports whether the claims reference a server-side session.
func (c *AuthClaims) SessionBound() bool {
	return c.SessionToken != ""
}

// IsPasswordReset reports whether the token is a password-reset capability.
func (c *AuthClaims) IsPasswordReset() bool {
	return c.Purpose == PurposePasswordReset
}

// TokenCodec signs, verifies and decodes HS256 bearer tokens with a shared secret.
type TokenCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// CodecOption customises a [TokenCodec].
type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) { c.now = now }
}

// NewTokenCodec creates a codec bound to the given signing secret.
func NewTokenCodec(secret, issuer string, opts ...CodecOption) (*TokenCodec, error) {
	if secret == "" {
		return nil, fmt.Errorf("sec: token signing secret must not be empty")
	}

	codec := &TokenCodec{secret: []byte(secret), issuer: issuer, now: time.Now}
	for _, opt := range opts {
		opt(codec)
	}
	return codec, nil
}

// Issue signs the given claims. A non-positive ttl falls back to [DefaultTokenTTL].
func (c *TokenCodec) Issue(claims AuthClaims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if claims.Purpose == "" {
		claims.Purpose = PurposeAccess
	}

	issuedAt := c.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID,
		Issuer:    c.issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of a token and returns its claims.
//
// Errors are one of [ErrNoToken], [ErrInvalidSignature], [ErrExpired] or [ErrMalformed].
func (c *TokenCodec) Verify(tokenString string) (*AuthClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrNoToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)

	claims := &AuthClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})

	switch {
	case err == nil && token.Valid:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, ErrInvalidSignature
	default:
		return nil, ErrMalformed
	}
}

// Decode returns the claims without verifying the signature, for inspection only.
// It returns nil when the token cannot be parsed at all.
func (c *TokenCodec) Decode(tokenString string) *AuthClaims {
	claims := &AuthClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(tokenString), claims); err != nil {
		return nil
	}
	return claims
}
