// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bounce

import (
	"context"
	"fmt"
	"log/slog"
)

// Suppressor adds addresses to the suppression list.
type Suppressor interface {
	Add(ctx context.Context, email, reason, subject string) (bool, error)
}

// Report summarises one polling pass.
type Report struct {
	Messages   int      `json:"messages"`
	Extracted  []string `json:"extracted"`
	Suppressed int      `json:"suppressed"`
}

// Processor drains the bounce mailbox into the suppression list.
type Processor struct {
	dialer     Dialer
	suppressor Suppressor
	logger     *slog.Logger
}

// NewProcessor constructs a bounce [Processor].
func NewProcessor(dialer Dialer, suppressor Suppressor, logger *slog.Logger) *Processor {
	return &Processor{dialer: dialer, suppressor: suppressor, logger: logger}
}

/*
ProcessBounces runs one polling pass.

Description: Opens the mailbox, reads every unread message, suppresses each
extracted recipient with reason bounce_detected, then flags all fetched
messages as read in a single call. The connection is closed on return,
including after the first unrecoverable error.

Returns:
  - Report: Counts for the pass
  - error: Mailbox failures. Individual suppression failures are logged only.
*/
func (p *Processor) ProcessBounces(ctx context.Context) (Report, error) {
	report := Report{Extracted: make([]string, 0)}

	mailbox, err := p.dialer.Dial(ctx)
	if err != nil {
		return report, err
	}
	defer func() {
		if err := mailbox.Close(); err != nil {
			p.logger.WarnContext(ctx, "bounce_mailbox_close_failed", slog.Any("error", err))
		}
	}()

	messages, err := mailbox.FetchUnseen(ctx)
	if err != nil {
		return report, err
	}
	if len(messages) == 0 {
		return report, nil
	}

	report.Messages = len(messages)
	uids := make([]uint32, 0, len(messages))

	for _, message := range messages {
		uids = append(uids, message.UID)

		if message.ParseErr != nil {
			p.logger.WarnContext(ctx, "bounce_parse_failed",
				slog.Uint64("uid", uint64(message.UID)),
				slog.Any("error", message.ParseErr),
			)
			continue
		}

		for _, email := range Extract(message.Text) {
			report.Extracted = append(report.Extracted, email)

			added, err := p.suppressor.Add(ctx, email, ReasonBounceDetected, "")
			if err != nil {
				p.logger.ErrorContext(ctx, "bounce_suppress_failed",
					slog.String("email", email),
					slog.Any("error", err),
				)
				continue
			}
			if added {
				report.Suppressed++
			}
		}
	}

	if err := mailbox.MarkSeen(ctx, uids); err != nil {
		return report, fmt.Errorf("bounce: mark %d messages seen: %w", len(uids), err)
	}

	p.logger.InfoContext(ctx, "bounce_batch_processed",
		slog.Int("messages", report.Messages),
		slog.Int("extracted", len(report.Extracted)),
		slog.Int("suppressed", report.Suppressed),
	)

	return report, nil
}

// Run is the job entry point used by the scheduler.
func (p *Processor) Run(ctx context.Context) error {
	_, err := p.ProcessBounces(ctx)
	return err
}
