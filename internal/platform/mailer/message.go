// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package mailer is the single path for outbound transactional email.
//
// # Architecture
//
//   - [Gateway] checks the suppression list, hands the message to a
//     [Transport], and suppresses recipients that fail permanently.
//   - [SMTPTransport] delivers over SMTP with TLS required, and
//     reports relay replies as a [Rejection].
//   - [Dispatcher] runs sends as detached tasks whose failures are logged.
package mailer

// Message is one outbound HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}
