// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Field Identifiers

const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldCode            = "code"
	FieldToken           = "token"
	FieldCurrentPassword = "currentPassword"
	FieldNewPassword     = "newPassword"
	FieldResetToken      = "reset_token"
	FieldUser            = "user"
	FieldSessions        = "sessions"
)

// # Client Messages

const (
	msgInvalidCredentials = "Invalid email or password"
	msgInactiveAccount    = "Account is inactive. Please contact support"
	msgInvalidCode        = "Invalid or expired verification code"
	msgInvalidResetToken  = "Invalid or expired reset token"
	msgInvalidCurrentPass = "Invalid current password"
)

// resetMailSubject is the subject line of the password reset email.
const resetMailSubject = "Password Reset Code"

// resetExpiryMinutes is rendered into the reset email as [EXPIRY_TIME].
const resetExpiryMinutes = "60"
