package mail

import (
	"bytes"
	"context"
	"testing"

	"deskhub/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageCarriesAttachment(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{Host: "smtp.example.com", Port: 587, User: "alert@example.com"})

	m, err := s.message(Message{
		To:      []string{"hr@example.com", "bob@example.com"},
		Subject: "Leave Application Form LVF_bob_001",
		Body:    "Attached.",
		Attachments: []Attachment{
			{Name: "lvf_bob_001.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3")},
		},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "From: alert@example.com")
	assert.Contains(t, out, "hr@example.com")
	assert.Contains(t, out, "bob@example.com")
	assert.Contains(t, out, "Message-ID: <")
	assert.Contains(t, out, `filename="lvf_bob_001.pdf"`)
	assert.Contains(t, out, "application/pdf")
}

func TestMessageRequiresRecipients(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{Host: "smtp.example.com"})
	_, err := s.message(Message{Subject: "x"})
	assert.Error(t, err)
}

func TestNewFallsBackToLogSender(t *testing.T) {
	sender := New(config.MailConfig{})
	assert.IsType(t, LogSender{}, sender)
	assert.NoError(t, sender.Send(context.Background(), Message{To: []string{"a@example.com"}}))

	assert.IsType(t, &SMTPSender{}, New(config.MailConfig{Host: "smtp.example.com", To: []string{"hr@example.com"}}))
}

func TestSendHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewSMTPSender(config.MailConfig{Host: "127.0.0.1", Port: 1})
	assert.ErrorIs(t, s.Send(ctx, Message{To: []string{"a@example.com"}}), context.Canceled)
}
