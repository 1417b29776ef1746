// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	_ "embed"
	"html"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/taibuivan/passage/pkg/placeholder"
)

//go:embed templates/reset-password.html
var resetPasswordTemplate string

// renderResetEmail fills the password reset template for user.
// Names are user supplied and are HTML-escaped; the logo URL and code are not.
func renderResetEmail(logoURL string, user *User, code string, now time.Time) string {
	return placeholder.Replace(resetPasswordTemplate, map[string]string{
		"LOGO_URL":     logoURL,
		"FIRST_NAME":   html.EscapeString(displayName(user.FirstName)),
		"LAST_NAME":    html.EscapeString(displayName(user.LastName)),
		"CODE":         code,
		"EXPIRY_TIME":  resetExpiryMinutes,
		"CURRENT_YEAR": strconv.Itoa(now.Year()),
	})
}

// displayName title-cases a stored name for greeting lines.
// A Caser is stateful, so each call builds its own.
func displayName(name string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(name))
}
