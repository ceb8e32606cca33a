package notifier

import (
	"context"

	"roomreserve/pkg/config"
	"roomreserve/pkg/logger"
)

// Attachment is a calendar invite sent alongside the HTML body.
type Attachment struct {
	Filename string
	Method   string
	Content  []byte
}

type Mail struct {
	To         string
	Subject    string
	HTML       string
	Attachment *Attachment
}

type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// LogMailer only logs outgoing mail. It is used when no mail provider is configured.
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, mail Mail) error {
	attrs := []any{"to", mail.To, "subject", mail.Subject}
	if mail.Attachment != nil {
		attrs = append(attrs, "invite_method", mail.Attachment.Method)
	}
	m.log.Info("Email delivery skipped, no mail provider configured", attrs...)
	return nil
}

// NewMailer picks Gmail when its OAuth credentials are configured and the log mailer otherwise.
func NewMailer(ctx context.Context, cfg *config.Config) (Mailer, error) {
	if !cfg.GmailConfigured() {
		cfg.Log.Warn("Gmail credentials not configured, notifications will only be logged")
		return NewLogMailer(cfg.Log), nil
	}
	return NewGmailMailer(ctx, cfg)
}
