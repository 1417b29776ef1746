// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, background job cadences and the
shared keys used across layers. Values that operators tune per deployment
live in [config.Config] instead.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "passage-api"
	AppVersion = "0.1.0"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	// Profile pictures arrive as base64 JSON bodies, so this is generous.
	DefaultReadTimeout = 15 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 30 * time.Second

	DefaultIdleTimeout       = 120 * time.Second
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 25 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests and detached mail to finish.
	ShutdownTimeout = 30 * time.Second

	// MaxRequestBodyBytes bounds JSON bodies, including base64 image payloads.
	MaxRequestBodyBytes = 10 << 20
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 20.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 40

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in bearer tokens.
	AuthIssuer = "passage"

	// SessionTTL is the server-side lifetime of a login session.
	SessionTTL = 30 * 24 * time.Hour

	// OTPTTL is how long an emailed password reset code stays valid.
	OTPTTL = time.Hour

	// OTPLength is the number of digits in a password reset code.
	OTPLength = 6

	// MinPasswordLength applies to registration, reset and change.
	MinPasswordLength = 6
)

// # Mail

const (
	// MailSendTimeout bounds a single detached SMTP delivery.
	MailSendTimeout = 30 * time.Second

	// BounceBatchTimeout bounds one bounce mailbox polling pass.
	BounceBatchTimeout = 2 * time.Minute

	// BouncePollLease is the Redis lease name held while polling the bounce mailbox.
	BouncePollLease = "bounce-poll"

	// SessionCleanupLease is the Redis lease name held while sweeping expired sessions.
	SessionCleanupLease = "session-cleanup"
)

// # Event Routing Keys

const (
	EventMailSuppressed         = "mail.suppressed"
	EventPasswordResetRequested = "account.password_reset_requested"
)

// # JSON Field Identifiers

const (
	FieldStatus  = "status"
	FieldMessage = "message"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # HTTP Headers

const (
	HeaderAuthorization = "Authorization"
	HeaderOrigin        = "Origin"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
)
