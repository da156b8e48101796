package sessions

import (
	"context"
	"fmt"

	"github.com/goliatone/go-errors"
	"github.com/wneessen/go-mail"
)

// SMTPMailer delivers messages over SMTP.
type SMTPMailer struct {
	client *mail.Client
	logger Logger
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer builds a mailer from the mail section of the configuration.
func NewSMTPMailer(cfg MailConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("mail host is not configured", errors.CategoryBadInput)
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create SMTP client")
	}

	return &SMTPMailer{
		client: client,
		logger: defLogger{},
	}, nil
}

func (m *SMTPMailer) WithLogger(logger Logger) *SMTPMailer {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// Send delivers the message, propagating any failure to the caller.
func (m *SMTPMailer) Send(ctx context.Context, msg MailMessage) error {
	out := mail.NewMsg()
	if err := out.From(msg.From); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid sender address")
	}
	if err := out.To(msg.To); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid recipient address")
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextHTML, msg.HTML)

	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		m.logger.Error("SMTP send failed", "to", msg.To, "error", err)
		return errors.Wrap(err, errors.CategoryOperation, "failed to send notification email").
			WithTextCode(TextCodeNotificationFailed)
	}

	return nil
}

func resetPasswordMessage(cfg MailConfig, account *Account, token string) MailMessage {
	link := fmt.Sprintf("%s?id=%s&token=%s", cfg.ResetURL, account.GetID(), token)
	return MailMessage{
		From:    cfg.From,
		To:      account.Email,
		Subject: "Reset your password",
		HTML: fmt.Sprintf(
			`<p>Hi %s,</p><p>A password reset was requested for your account. Follow <a href="%s">this link</a> to choose a new password.</p><p>If you did not request this, you can ignore this message.</p>`,
			account.Name, link,
		),
	}
}

func verifyEmailMessage(cfg MailConfig, account *Account, token string) MailMessage {
	link := fmt.Sprintf("%s?id=%s&token=%s", cfg.VerifyURL, account.GetID(), token)
	return MailMessage{
		From:    cfg.From,
		To:      account.Email,
		Subject: "Verify your email address",
		HTML: fmt.Sprintf(
			`<p>Hi %s,</p><p>Follow <a href="%s">this link</a> to verify your email address.</p>`,
			account.Name, link,
		),
	}
}
