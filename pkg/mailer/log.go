package mailer

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// LogSender writes messages to the logger instead of delivering them. It keeps
// the sent messages so development setups and tests can inspect them.
type LogSender struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []Message
}

var _ Sender = (*LogSender)(nil)

func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if !msg.HasRecipients() {
		return nil
	}
	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, addr.String())
	}
	s.logger.Info("email", zap.Strings("to", to), zap.String("subject", msg.Subject), zap.String("body", msg.Text))

	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	return nil
}

// Sent returns a copy of every message passed to Send.
func (s *LogSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}
