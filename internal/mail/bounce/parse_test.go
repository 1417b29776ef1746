// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bounce_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/passage/internal/mail/bounce"
)

const deliveryReport = "From: Mail Delivery System <MAILER-DAEMON@mx.example.net>\r\n" +
	"To: noreply@passage.test\r\n" +
	"Subject: Undelivered Mail Returned to Sender\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/report; report-type=delivery-status; boundary=\"BOUNDARY\"\r\n" +
	"\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: text/plain; charset=us-ascii\r\n" +
	"\r\n" +
	"This is the mail system. Your message could not be delivered.\r\n" +
	"\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: message/delivery-status\r\n" +
	"\r\n" +
	"Reporting-MTA: dns; mx.example.net\r\n" +
	"\r\n" +
	"Final-Recipient: rfc822; ghost@example.com\r\n" +
	"Action: failed\r\n" +
	"Status: 5.1.1\r\n" +
	"\r\n" +
	"--BOUNDARY--\r\n"

func TestParseBounce_DeliveryStatusReport(t *testing.T) {
	text, err := bounce.ParseBounce(strings.NewReader(deliveryReport))
	require.NoError(t, err)

	assert.Contains(t, text, "could not be delivered")
	assert.Equal(t, []string{"ghost@example.com"}, bounce.Extract(text))
}

func TestParseBounce_HTMLOnly(t *testing.T) {
	raw := "From: postmaster@example.org\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>The email account that you tried to reach does not exist: <b>lost@example.org</b></p>\r\n"

	text, err := bounce.ParseBounce(strings.NewReader(raw))
	require.NoError(t, err)

	assert.NotContains(t, text, "<b>")
	assert.Equal(t, []string{"lost@example.org"}, bounce.Extract(text))
}
