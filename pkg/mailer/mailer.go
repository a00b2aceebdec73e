package mailer

import (
	"crypto/tls"
	"errors"
	"strings"

	mail "github.com/go-mail/mail/v2"
)

// ErrNotConfigured is returned when host or sender is missing.
var ErrNotConfigured = errors.New("smtp not configured")

// Options configures the SMTP transport.
type Options struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	SkipTLSVerify bool
}

// Transport delivers fully built messages. *mail.Dialer satisfies it.
type Transport interface {
	DialAndSend(m ...*mail.Message) error
}

// Mailer sends HTML mail through a STARTTLS SMTP relay.
type Mailer struct {
	from      string
	transport Transport
}

// New builds a Mailer backed by a go-mail dialer.
func New(opts Options) (*Mailer, error) {
	if strings.TrimSpace(opts.Host) == "" || strings.TrimSpace(opts.From) == "" {
		return nil, ErrNotConfigured
	}
	port := opts.Port
	if port == 0 {
		port = 587
	}

	dialer := mail.NewDialer(opts.Host, port, opts.Username, opts.Password)
	dialer.StartTLSPolicy = mail.MandatoryStartTLS
	dialer.TLSConfig = &tls.Config{
		ServerName:         opts.Host,
		InsecureSkipVerify: opts.SkipTLSVerify,
	}

	return NewWithTransport(opts.From, dialer), nil
}

// NewWithTransport wires a custom transport, used by tests.
func NewWithTransport(from string, transport Transport) *Mailer {
	return &Mailer{from: from, transport: transport}
}

// SendHTML sends one message to every recipient. An empty recipient list is a no-op.
func (m *Mailer) SendHTML(to []string, subject, html string) error {
	recipients := make([]string, 0, len(to))
	for _, addr := range to {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			recipients = append(recipients, trimmed)
		}
	}
	if len(recipients) == 0 {
		return nil
	}

	return m.transport.DialAndSend(BuildMessage(m.from, recipients, subject, html))
}

// BuildMessage assembles an HTML message.
func BuildMessage(from string, to []string, subject, html string) *mail.Message {
	msg := mail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)
	return msg
}
