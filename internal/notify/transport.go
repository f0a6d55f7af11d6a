package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// ImplicitTLSPort is the submission port that speaks TLS from the first byte.
const ImplicitTLSPort = 465

// Envelope is the SMTP-level addressing of one message.
type Envelope struct {
	From       string
	Recipients []string
}

// Receipt is what the server accepted for one message.
type Receipt struct {
	Accepted []string
	Rejected []string
}

// Transport delivers a composed message. Implementations must be safe for
// concurrent use.
type Transport interface {
	Send(ctx context.Context, env Envelope, msg io.WriterTo) (*Receipt, error)
}

// ErrAllRecipientsRejected is returned when the server refuses every RCPT.
var ErrAllRecipientsRejected = errors.New("all recipients were rejected")

// SMTPTransport sends each message over a fresh SMTP connection. Its fields
// are read-only after construction.
type SMTPTransport struct {
	addr        string
	host        string
	username    string
	password    string
	implicitTLS bool
	tlsConfig   *tls.Config
}

// NewSMTPTransport builds a transport for host:port. Port 465 selects
// implicit TLS; other ports upgrade with STARTTLS when the server offers it.
// Certificate checks are skipped only outside production; TLS 1.2 is the
// floor either way.
func NewSMTPTransport(host string, port int, username, password string, production bool) *SMTPTransport {
	return &SMTPTransport{
		addr:        net.JoinHostPort(host, strconv.Itoa(port)),
		host:        host,
		username:    username,
		password:    password,
		implicitTLS: port == ImplicitTLSPort,
		tlsConfig:   TLSConfig(host, production),
	}
}

// TLSConfig returns the TLS policy for the mail server.
func TLSConfig(host string, production bool) *tls.Config {
	return &tls.Config{
		ServerName:         host,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !production, //nolint:gosec // relaxed outside production only
	}
}

// Send dials the server, authenticates, and submits msg to every recipient
// the server accepts. Individually refused recipients are reported in the
// receipt; the send fails only when none are accepted.
func (t *SMTPTransport) Send(ctx context.Context, env Envelope, msg io.WriterTo) (*Receipt, error) {
	c, err := t.dial()
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", t.addr, err)
	}
	defer c.Close()
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	if !t.implicitTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(t.tlsConfig); err != nil {
				return nil, fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if err := c.Auth(sasl.NewPlainClient("", t.username, t.password)); err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	if err := c.Mail(env.From, nil); err != nil {
		return nil, fmt.Errorf("mail from: %w", err)
	}

	receipt := &Receipt{}
	for _, rcpt := range env.Recipients {
		if err := c.Rcpt(rcpt, nil); err != nil {
			var smtpErr *smtp.SMTPError
			if errors.As(err, &smtpErr) {
				receipt.Rejected = append(receipt.Rejected, rcpt)
				continue
			}
			return nil, fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
		receipt.Accepted = append(receipt.Accepted, rcpt)
	}
	if len(receipt.Accepted) == 0 {
		return nil, ErrAllRecipientsRejected
	}

	w, err := c.Data()
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	if _, err := msg.WriteTo(w); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}

	// The message is accepted once DATA completes; a failed QUIT does not undo it.
	_ = c.Quit()
	return receipt, nil
}

func (t *SMTPTransport) dial() (*smtp.Client, error) {
	if t.implicitTLS {
		return smtp.DialTLS(t.addr, t.tlsConfig)
	}
	return smtp.Dial(t.addr)
}
