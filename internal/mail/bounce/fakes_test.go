// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bounce_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/taibuivan/passage/internal/mail/bounce"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type memoryStore struct {
	mu      sync.Mutex
	rows    map[string]*bounce.Suppression
	failAll error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: make(map[string]*bounce.Suppression)}
}

func (s *memoryStore) Exists(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return false, s.failAll
	}
	_, ok := s.rows[email]
	return ok, nil
}

func (s *memoryStore) Insert(_ context.Context, entry *bounce.Suppression) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return false, s.failAll
	}
	if _, ok := s.rows[entry.Email]; ok {
		return false, nil
	}
	s.rows[entry.Email] = entry
	return true, nil
}

func (s *memoryStore) List(context.Context) ([]*bounce.Suppression, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*bounce.Suppression, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	return out, nil
}

func (s *memoryStore) Delete(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[email]
	delete(s.rows, email)
	return ok, nil
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }

type fakeMailbox struct {
	messages  []bounce.Message
	fetchErr  error
	markCalls [][]uint32
	closed    int
}

func (m *fakeMailbox) FetchUnseen(context.Context) ([]bounce.Message, error) {
	return m.messages, m.fetchErr
}

func (m *fakeMailbox) MarkSeen(_ context.Context, uids []uint32) error {
	m.markCalls = append(m.markCalls, append([]uint32(nil), uids...))
	return nil
}

func (m *fakeMailbox) Close() error {
	m.closed++
	return nil
}

type fakeDialer struct {
	mailbox *fakeMailbox
	err     error
}

func (d *fakeDialer) Dial(context.Context) (bounce.Mailbox, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.mailbox, nil
}

var errStoreDown = errors.New("store down")
