package notifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"

	"roomreserve/pkg/config"
	"roomreserve/pkg/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailMailer sends mail through the Gmail API as the account owning the refresh token.
type GmailMailer struct {
	service *gmail.Service
	from    string
	log     *logger.Logger
}

func NewGmailMailer(ctx context.Context, cfg *config.Config) (*GmailMailer, error) {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.GmailClientID,
		ClientSecret: cfg.GmailClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	tokenSource := oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.GmailRefreshToken})

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &GmailMailer{service: service, from: cfg.MailFrom, log: cfg.Log}, nil
}

func (m *GmailMailer) Send(ctx context.Context, mail Mail) error {
	raw, err := buildMIME(m.from, mail)
	if err != nil {
		return err
	}

	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	sent, err := m.service.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", mail.To, err)
	}

	m.log.Debug("Email sent", "to", mail.To, "subject", mail.Subject, "message_id", sent.Id)
	return nil
}

// buildMIME renders an RFC 5322 message. Mail with an invite becomes multipart/mixed with
// the HTML body first and the text/calendar part second.
func buildMIME(from string, mail Mail) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", mail.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", mail.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if mail.Attachment == nil {
		buf.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
		buf.WriteString(mail.HTML)
		return buf.Bytes(), nil
	}

	body := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", body.Boundary())

	htmlPart, err := body.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=\"UTF-8\""},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create html part: %w", err)
	}
	if _, err := htmlPart.Write([]byte(mail.HTML)); err != nil {
		return nil, fmt.Errorf("failed to write html part: %w", err)
	}

	invitePart, err := body.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {fmt.Sprintf("text/calendar; charset=\"UTF-8\"; method=%s", mail.Attachment.Method)},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", mail.Attachment.Filename)},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create invite part: %w", err)
	}
	if _, err := invitePart.Write([]byte(base64.StdEncoding.EncodeToString(mail.Attachment.Content))); err != nil {
		return nil, fmt.Errorf("failed to write invite part: %w", err)
	}

	if err := body.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}
	return buf.Bytes(), nil
}
