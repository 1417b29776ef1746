// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// # Opaque Secrets

// GenerateSecureToken returns 32 random bytes as a 64 character hex string.
func GenerateSecureToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("sec: failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashToken returns the hex SHA-256 digest of an opaque token.
// Session tokens are stored only in this form.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// DeviceFingerprint derives a display-only device identifier from the
// user agent and client IP: the first 16 hex characters of their SHA-256.
func DeviceFingerprint(userAgent, ip string) string {
	sum := sha256.Sum256([]byte(userAgent + ip))
	return hex.EncodeToString(sum[:])[:16]
}

// # One-Time Codes

var otpSpace = big.NewInt(1_000_000)

// GenerateNumericCode draws a uniform code in [0, 999999] and zero-pads it to 6 digits.
func GenerateNumericCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", fmt.Errorf("sec: failed to draw numeric code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
