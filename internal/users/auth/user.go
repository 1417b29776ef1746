// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the credential and session lifecycle.

It owns the Credential Store contracts (users, one-time codes, sessions), the
[SessionManager] that enforces one active session per user, and the
password-reset flow that exchanges an emailed code for a short-lived reset
token.

# Architecture

  - Entities: User, Session, OTP.
  - Repositories: Postgres implementations of the contracts in store.go.
  - Service: Login, logout, password reset and change.
  - Handler: the /account HTTP surface.
*/
package auth

import (
	"time"

	"github.com/taibuivan/passage/internal/platform/sec"
)

// # Enumerations

// UserStatus is the lifecycle state of an account. Deleted accounts are never
// physically removed.
type UserStatus string

const (
	StatusActive   UserStatus = "ACTIVE"
	StatusInactive UserStatus = "INACTIVE"
	StatusDeleted  UserStatus = "DELETED"
)

// Gender values accepted on registration and profile update.
const (
	GenderMale         = "MALE"
	GenderFemale       = "FEMALE"
	GenderRatherNotSay = "RATHER_NOT_SAY"
)

// Genders lists every accepted gender value.
var Genders = []string{GenderMale, GenderFemale, GenderRatherNotSay}

// OTPPurpose scopes a one-time code to a single flow.
type OTPPurpose string

const PurposePasswordReset OTPPurpose = "PASSWORD_RESET"

// # Domain Entities

// User represents a registered account.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Gender       string       `json:"gender"`
	Role         sec.UserRole `json:"role"`
	Status       UserStatus   `json:"status"`
	Country      string       `json:"country"`
	ProfileImage string       `json:"profile_image,omitempty"`
	DateOfBirth  *time.Time   `json:"date_of_birth,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// IsActive reports whether the account may sign in.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// Session is a server-tracked login. Only the SHA-256 of the session token is stored.
type Session struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	TokenHash         string    `json:"-"`
	DeviceFingerprint string    `json:"device_fingerprint"`
	IPAddress         string    `json:"ip_address"`
	UserAgent         string    `json:"user_agent"`
	IsActive          bool      `json:"is_active"`
	ExpiresAt         time.Time `json:"expires_at"`
	CreatedAt         time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// OTP is an emailed one-time code. CodeHash is the SHA-256 of the digits.
type OTP struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	CodeHash  string     `json:"-"`
	Purpose   OTPPurpose `json:"purpose"`
	ExpiresAt time.Time  `json:"expires_at"`
	IsUsed    bool       `json:"is_used"`
	CreatedAt time.Time  `json:"created_at"`
}
