// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bounce

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// Message is one unread bounce notification.
type Message struct {
	UID uint32
	// Text is the scannable body; empty when ParseErr is set.
	Text     string
	ParseErr error
}

// Mailbox is an open connection to the bounce inbox.
type Mailbox interface {
	// FetchUnseen returns every unread message without marking it read.
	FetchUnseen(ctx context.Context) ([]Message, error)

	// MarkSeen flags the given messages as read.
	MarkSeen(ctx context.Context, uids []uint32) error

	Close() error
}

// Dialer opens a [Mailbox].
type Dialer interface {
	Dial(ctx context.Context) (Mailbox, error)
}

// # IMAP

// IMAPDialer connects to an IMAPS server and selects INBOX.
type IMAPDialer struct {
	Host               string
	Port               int
	Username           string
	Password           string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// Dial implements [Dialer].
func (d *IMAPDialer) Dial(ctx context.Context) (Mailbox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	netDialer := &net.Dialer{Timeout: d.Timeout}
	if deadline, ok := ctx.Deadline(); ok {
		netDialer.Deadline = deadline
	}

	c, err := client.DialWithDialerTLS(netDialer, addr, &tls.Config{
		ServerName:         d.Host,
		InsecureSkipVerify: d.InsecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
	})
	if err != nil {
		return nil, fmt.Errorf("bounce: imap dial %s: %w", addr, err)
	}
	c.Timeout = d.Timeout

	if err := c.Login(d.Username, d.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("bounce: imap login: %w", err)
	}

	if _, err := c.Select(imap.InboxName, false); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("bounce: imap select inbox: %w", err)
	}

	return &imapMailbox{client: c}, nil
}

type imapMailbox struct {
	client *client.Client
}

func (m *imapMailbox) FetchUnseen(ctx context.Context) ([]Message, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	uids, err := m.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("bounce: imap search unseen: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	// Peek leaves \Seen untouched so a message is flagged only after processing.
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchUid}

	fetched := make(chan *imap.Message, 16)
	done := make(chan error, 1)
	go func() {
		done <- m.client.UidFetch(seqSet, items, fetched)
	}()

	messages := make([]Message, 0, len(uids))
	for msg := range fetched {
		entry := Message{UID: msg.Uid}

		body := msg.GetBody(section)
		if body == nil {
			entry.ParseErr = fmt.Errorf("bounce: server returned no body for uid %d", msg.Uid)
		} else {
			entry.Text, entry.ParseErr = ParseBounce(body)
		}

		messages = append(messages, entry)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("bounce: imap fetch: %w", err)
	}
	return messages, nil
}

func (m *imapMailbox) MarkSeen(_ context.Context, uids []uint32) error {
	if len(uids) == 0 {
		return nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}
	if err := m.client.UidStore(seqSet, item, flags, nil); err != nil {
		return fmt.Errorf("bounce: imap mark seen: %w", err)
	}
	return nil
}

func (m *imapMailbox) Close() error {
	return m.client.Logout()
}
