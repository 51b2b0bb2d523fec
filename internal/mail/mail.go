// Package mail delivers messages with attachments over SMTP.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"strings"

	"deskhub/internal/config"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

type Message struct {
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, InsecureSkipVerify: cfg.InsecureTLS}
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &SMTPSender{dialer: d, from: from}
}

// New returns an SMTP sender, or a sender that only logs when no relay is
// configured.
func New(cfg config.MailConfig) Sender {
	if !cfg.Enabled() {
		log.Println("Warning: SMTP not configured, outgoing mail will be logged only")
		return LogSender{}
	}
	return NewSMTPSender(cfg)
}

func (s *SMTPSender) message(msg Message) (*gomail.Message, error) {
	if len(msg.To) == 0 {
		return nil, fmt.Errorf("no recipients")
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", fmt.Sprintf("<%s@deskhub>", uuid.NewString()))
	m.SetBody("text/plain", msg.Body)
	for _, a := range msg.Attachments {
		data := a.Data
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		m.Attach(a.Name,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {contentType}}),
		)
	}
	return m, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := s.message(msg)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("sending mail to %s: %w", strings.Join(msg.To, ", "), err)
	}
	log.Printf("Mail %q sent to %s", msg.Subject, strings.Join(msg.To, ", "))
	return nil
}

// LogSender discards messages after logging them.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	log.Printf("Mail %q to %s not sent (SMTP disabled), %d attachment(s)",
		msg.Subject, strings.Join(msg.To, ", "), len(msg.Attachments))
	return nil
}
