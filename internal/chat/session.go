// Package chat drives a chatbot conversation: log in, send a message, read
// the bot's reply.
package chat

import (
	"context"
	"errors"

	"github.com/chatcheck/chatcheck/internal/cases"
)

var (
	// ErrLogin marks a setup failure: credentials rejected, page
	// unreachable, or the logged-in marker never showed.
	ErrLogin = errors.New("login failed")

	// ErrReplyNotFound means no bot reply element appeared in time.
	ErrReplyNotFound = errors.New("bot reply not found")
)

// Session is a logged-in conversation with the bot under test.
type Session interface {
	// Login authenticates and lands on the chatbot's page. Errors wrap ErrLogin.
	Login(ctx context.Context) error
	// Send opens the chat and submits one message.
	Send(ctx context.Context, message string) error
	// WaitReply waits for the bot's reply to satisfy c. It returns the reply
	// text with a nil error on pass, a *cases.MismatchError when a reply
	// showed but never matched, or an error wrapping ErrReplyNotFound.
	WaitReply(ctx context.Context, c cases.Case) (string, error)
	Close() error
}

// Ask sends c's input and waits for a reply that satisfies it.
func Ask(ctx context.Context, s Session, c cases.Case) (string, error) {
	if err := s.Send(ctx, c.Input); err != nil {
		return "", err
	}
	return s.WaitReply(ctx, c)
}
