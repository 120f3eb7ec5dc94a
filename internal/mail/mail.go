package mail

import (
	"context"
	"errors"
	"log/slog"
)

var ErrNoRecipient = errors.New("to address is empty")

// Message is a single transactional email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender only logs messages; it is used when no SendGrid key is configured.
type LogSender struct {
	Log *slog.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	s.Log.Info("mail not sent (no provider configured)", "to", msg.To, "subject", msg.Subject)
	return nil
}
