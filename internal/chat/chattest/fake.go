// Package chattest provides a scripted chat.Session for tests.
package chattest

import (
	"context"
	"fmt"
	"sync"

	"github.com/chatcheck/chatcheck/internal/cases"
	"github.com/chatcheck/chatcheck/internal/chat"
)

// Session answers each sent message from Replies. A message with no entry
// gets no reply, which WaitReply reports as chat.ErrReplyNotFound.
type Session struct {
	Replies  map[string]string
	LoginErr error
	SendErr  error

	mu     sync.Mutex
	sent   []string
	logins int
	closed bool
}

var _ chat.Session = (*Session)(nil)

func (s *Session) Login(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logins++
	if s.LoginErr != nil {
		return fmt.Errorf("%w: %w", chat.ErrLogin, s.LoginErr)
	}
	return nil
}

func (s *Session) Send(ctx context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SendErr != nil {
		return s.SendErr
	}
	s.sent = append(s.sent, message)
	return nil
}

func (s *Session) WaitReply(ctx context.Context, c cases.Case) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(s.sent) == 0 {
		return "", chat.ErrReplyNotFound
	}
	reply, ok := s.Replies[s.sent[len(s.sent)-1]]
	if !ok {
		return "", fmt.Errorf("%w: no reply scripted", chat.ErrReplyNotFound)
	}
	return reply, cases.Match(c, reply)
}

func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Sent returns the messages sent so far, in order.
func (s *Session) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func (s *Session) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
