// Package notify emails the operator about new inquiries.
//
// A Dispatcher is built once per process from the mail configuration. When
// any required option is missing it is still constructed, but in degraded
// mode: every Send fails with a NOT_CONFIGURED error and never touches the
// network.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-mail/mail"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"urja/internal/config"
	"urja/internal/domain"
	applog "urja/internal/logger"
	"urja/internal/metrics"
	apperrors "urja/pkg/errors"
)

// DispatchResult reports what the mail server did with one notification.
type DispatchResult struct {
	Accepted  []string
	Rejected  []string
	MessageID string
}

// Dispatcher renders and sends inquiry notifications. It holds no per-call
// state and is safe for concurrent use.
type Dispatcher struct {
	from      string
	to        string
	cc        []string
	transport Transport
	missing   []string
	now       func() time.Time
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithTransport replaces the SMTP transport.
func WithTransport(t Transport) Option {
	return func(d *Dispatcher) { d.transport = t }
}

// New validates cfg and returns a Dispatcher. It never fails; missing
// options put the dispatcher in degraded mode.
func New(cfg config.MailConfig, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		from:    cfg.Username,
		to:      cfg.AdminEmail,
		cc:      ParseCC(cfg.CC),
		missing: missingOptions(cfg),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	log := applog.L().Named("notify")

	if len(d.missing) > 0 {
		log.Warn("email notifications disabled: missing mail configuration",
			zap.Strings("missing", d.missing))
		return d
	}

	if d.transport == nil {
		d.transport = NewSMTPTransport(cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Production)
	}

	log.Info("email notifications enabled",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("to", d.to),
		zap.Strings("cc", d.cc),
		zap.Bool("strict_tls", cfg.Production))
	return d
}

func missingOptions(cfg config.MailConfig) []string {
	var missing []string
	if strings.TrimSpace(cfg.Host) == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if cfg.Port <= 0 {
		missing = append(missing, "SMTP_PORT")
	}
	if strings.TrimSpace(cfg.Username) == "" {
		missing = append(missing, "SMTP_USER")
	}
	if cfg.Password == "" {
		missing = append(missing, "SMTP_PASS")
	}
	if strings.TrimSpace(cfg.AdminEmail) == "" {
		missing = append(missing, "ADMIN_EMAIL")
	}
	return missing
}

// Configured reports whether Send can reach the network.
func (d *Dispatcher) Configured() bool {
	return len(d.missing) == 0
}

// Missing lists the absent configuration keys.
func (d *Dispatcher) Missing() []string {
	return append([]string(nil), d.missing...)
}

// Recipients returns the admin address followed by the CC list.
func (d *Dispatcher) Recipients() []string {
	return append([]string{d.to}, d.cc...)
}

// Send emails the operator about inquiry. It does not retry.
func (d *Dispatcher) Send(ctx context.Context, inquiry *domain.Inquiry) (*DispatchResult, error) {
	log := applog.From(ctx).Named("notify").With(zap.String("inquiry_id", inquiry.ID))

	if !d.Configured() {
		metrics.RecordNotification("not_configured", 0)
		return nil, apperrors.New(apperrors.ErrCodeNotConfigured,
			"email transport not configured, missing "+strings.Join(d.missing, ", "))
	}

	content, err := Render(inquiry)
	if err != nil {
		metrics.RecordNotification("transport_rejected", 0)
		log.Error("failed to render inquiry notification", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.ErrCodeTransportRejected, "failed to render the notification", err)
	}
	messageID := d.messageID()
	msg := d.compose(content, messageID)

	log.Debug("sending inquiry notification",
		zap.String("to", d.to),
		zap.Strings("cc", d.cc),
		zap.String("message_id", messageID))

	receipt, err := d.transport.Send(ctx, Envelope{From: d.from, Recipients: d.Recipients()}, msg)
	if err != nil {
		metrics.RecordNotification("transport_rejected", 0)
		log.Error("failed to send inquiry notification", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.ErrCodeTransportRejected, "mail server rejected the notification", err)
	}

	metrics.RecordNotification("sent", len(receipt.Rejected))
	log.Info("inquiry notification sent",
		zap.String("message_id", messageID),
		zap.Strings("accepted", receipt.Accepted),
		zap.Strings("rejected", receipt.Rejected))

	return &DispatchResult{
		Accepted:  receipt.Accepted,
		Rejected:  receipt.Rejected,
		MessageID: messageID,
	}, nil
}

func (d *Dispatcher) compose(content *Content, messageID string) *mail.Message {
	m := mail.NewMessage()
	m.SetAddressHeader("From", d.from, SenderName)
	m.SetHeader("To", d.to)
	if len(d.cc) > 0 {
		m.SetHeader("Cc", d.cc...)
	}
	m.SetHeader("Subject", content.Subject)
	m.SetHeader("Message-ID", messageID)
	m.SetDateHeader("Date", d.now())
	m.SetBody("text/plain", content.Text)
	m.AddAlternative("text/html", content.HTML)
	return m
}

func (d *Dispatcher) messageID() string {
	host := "localhost"
	if at := strings.LastIndex(d.from, "@"); at >= 0 && at < len(d.from)-1 {
		host = d.from[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), host)
}
