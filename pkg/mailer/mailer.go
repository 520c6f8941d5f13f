package mailer

import (
	"context"
	"net/mail"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      []mail.Address
	ReplyTo *mail.Address
	Subject string
	Text    string
	HTML    string
}

// HasRecipients reports whether the message has at least one To address.
func (m Message) HasRecipients() bool {
	return len(m.To) > 0
}

// Sender delivers messages. Implementations return an error for retryable failures.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
