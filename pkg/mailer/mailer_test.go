package mailer

import (
	"context"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendGridPrepare(t *testing.T) {
	s := NewSendGridSender("key", "Class Scheduler", "no-reply@example.com")
	m := s.prepare(Message{
		To:      []mail.Address{{Name: "Prof", Address: "prof@example.com"}},
		ReplyTo: &mail.Address{Address: "ana@example.com"},
		Subject: "Aula remarcada",
		Text:    "plain",
	})

	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[Class Scheduler] Aula remarcada", m.Personalizations[0].Subject)
	assert.Equal(t, "prof@example.com", m.Personalizations[0].To[0].Address)
	assert.Equal(t, "ana@example.com", m.ReplyTo.Address)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "text/plain", m.Content[0].Type)
}

func TestSendGridSkipsMessagesWithoutRecipients(t *testing.T) {
	s := NewSendGridSender("key", "App", "no-reply@example.com")
	s.host = "http://127.0.0.1:0"
	assert.NoError(t, s.Send(context.Background(), Message{Subject: "nobody"}))
}

func TestLogSenderRecords(t *testing.T) {
	s := NewLogSender(nil)
	require.NoError(t, s.Send(context.Background(), Message{To: []mail.Address{{Address: "a@b.c"}}, Subject: "hi"}))
	require.NoError(t, s.Send(context.Background(), Message{Subject: "dropped"}))

	sent := s.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "hi", sent[0].Subject)
}
