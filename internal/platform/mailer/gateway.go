// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mailer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrSuppressed is returned when the recipient is on the suppression list.
var ErrSuppressed = errors.New("mailer: recipient is on the suppression list")

// SuppressionList is the view of the suppression list the gateway needs.
type SuppressionList interface {
	IsSuppressed(ctx context.Context, email string) bool
	Add(ctx context.Context, email, reason, subject string) (bool, error)
}

// Gateway sends mail while honouring the suppression list.
type Gateway struct {
	transport    Transport
	suppressions SuppressionList
	logger       *slog.Logger
}

// NewGateway constructs a [Gateway].
func NewGateway(transport Transport, suppressions SuppressionList, logger *slog.Logger) *Gateway {
	return &Gateway{transport: transport, suppressions: suppressions, logger: logger}
}

/*
Send delivers msg unless its recipient is suppressed.

Description: A permanent recipient [Rejection] adds the recipient to the suppression
list with reason smtp_permanent_error and the message subject as context.

Returns:
  - error: ErrSuppressed, or the transport failure
*/
func (g *Gateway) Send(ctx context.Context, msg Message) error {
	if g.suppressions.IsSuppressed(ctx, msg.To) {
		g.logger.InfoContext(ctx, "mail_skipped_suppressed", slog.String("to", msg.To))
		return ErrSuppressed
	}

	err := g.transport.Deliver(ctx, msg)
	if err == nil {
		g.logger.InfoContext(ctx, "mail_sent",
			slog.String("to", msg.To),
			slog.String("subject", msg.Subject),
		)
		return nil
	}

	g.logger.ErrorContext(ctx, "mail_send_failed",
		slog.String("to", msg.To),
		slog.Any("error", err),
	)

	if IsPermanent(err) {
		if _, addErr := g.suppressions.Add(ctx, msg.To, ReasonPermanentFailure, msg.Subject); addErr != nil {
			g.logger.ErrorContext(ctx, "mail_suppress_failed",
				slog.String("to", msg.To),
				slog.Any("error", addErr),
			)
		}
	}

	return err
}

// # Detached Delivery

// Sender is satisfied by [Gateway].
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher runs sends in the background so the triggering request never waits on SMTP.
// Failures are logged and counted; they never reach the caller.
type Dispatcher struct {
	sender   Sender
	logger   *slog.Logger
	timeout  time.Duration
	inflight sync.WaitGroup
	failures atomic.Int64
}

// NewDispatcher wraps a sender. Each detached send is bounded by timeout.
func NewDispatcher(sender Sender, logger *slog.Logger, timeout time.Duration) *Dispatcher {
	return &Dispatcher{sender: sender, logger: logger, timeout: timeout}
}

// Dispatch schedules msg. Request cancellation does not abort the send.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) {
	d.inflight.Add(1)

	go func() {
		defer d.inflight.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := d.sender.Send(sendCtx, msg); err != nil {
			d.failures.Add(1)
			d.logger.WarnContext(sendCtx, "mail_dispatch_failed",
				slog.String("to", msg.To),
				slog.String("subject", msg.Subject),
				slog.Any("error", err),
			)
		}
	}()
}

// Failures returns how many detached sends have failed.
func (d *Dispatcher) Failures() int64 {
	return d.failures.Load()
}

// Wait blocks until every scheduled send finishes or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
