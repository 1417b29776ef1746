// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bounce

import (
	"regexp"
	"strings"
)

// # Suppression Reasons

const (
	ReasonBounceDetected     = "bounce_detected"
	ReasonSMTPPermanentError = "smtp_permanent_error"
)

// addr is the recipient capture used by every extraction pattern.
const addr = `([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`

// extractionPatterns are tried in order; each captures the failed recipient in group 1.
var extractionPatterns = []*regexp.Regexp{
	// Gmail style status codes and phrasing
	regexp.MustCompile(`(?i)550[- ]5\.1\.1[\s\S]*?` + addr),
	regexp.MustCompile(`(?i)The email account that you tried to reach does not exist[\s\S]*?` + addr),

	// RFC 3464 delivery status reports
	regexp.MustCompile(`(?i)Final-Recipient:\s*rfc822;\s*` + addr),

	// SMTP transcripts
	regexp.MustCompile(`(?i)RCPT TO:<` + addr + `>`),

	// Exim
	regexp.MustCompile(`(?i)The following address\(es\) failed:[\s\S]*?` + addr),

	regexp.MustCompile(`(?i)Mailbox unavailable[\s\S]*?` + addr),
	regexp.MustCompile(`(?i)User unknown[\s\S]*?` + addr),
	regexp.MustCompile(`(?i)Invalid recipient[\s\S]*?` + addr),
	regexp.MustCompile(`(?i)No such user[\s\S]*?` + addr),

	// Generic: address first, reason afterwards
	regexp.MustCompile(`(?i)` + addr + `[\s\S]*?does not exist`),
	regexp.MustCompile(`(?i)` + addr + `[\s\S]*?550[- ]5\.1\.1`),
}

// wellFormed is the final sanity check applied to every captured address.
var wellFormed = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Extract returns the lowercase, de-duplicated recipient addresses found in a
// bounce body, in first-seen order. A body with no recognisable pattern yields
// an empty, non-nil slice.
func Extract(body string) []string {
	found := make([]string, 0)
	seen := make(map[string]struct{})

	for _, pattern := range extractionPatterns {
		for _, match := range pattern.FindAllStringSubmatch(body, -1) {
			if len(match) < 2 {
				continue
			}

			email := strings.ToLower(match[1])
			if !wellFormed.MatchString(email) {
				continue
			}
			if _, dup := seen[email]; dup {
				continue
			}

			seen[email] = struct{}{}
			found = append(found, email)
		}
	}

	return found
}
