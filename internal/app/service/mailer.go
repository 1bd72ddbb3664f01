package service

import (
	"fmt"
	"time"

	"github.com/ikkim/userhub-backend/config"
	"github.com/ikkim/userhub-backend/pkg/logger"
	"gopkg.in/gomail.v2"
)

// ResetCodeMail is the content of a password reset code email.
type ResetCodeMail struct {
	Name      string
	Email     string
	Code      string
	ExpiresAt time.Time
}

// Mailer delivers password reset codes.
type Mailer interface {
	SendResetCode(mail ResetCodeMail) error
}

// NewMailer returns an SMTP mailer, or a LogMailer when no SMTP host is set.
func NewMailer(cfg config.SMTPConfig) Mailer {
	if cfg.Host == "" {
		logger.Warn("SMTP host not configured, reset codes will not be delivered")
		return LogMailer{}
	}
	return NewSMTPMailer(cfg)
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) SendResetCode(mail ResetCodeMail) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", mail.Email)
	msg.SetHeader("Subject", "Reset Password")

	minutes := int(time.Until(mail.ExpiresAt).Round(time.Minute).Minutes())
	if minutes < 1 {
		minutes = 1
	}

	msg.SetBody("text/plain", fmt.Sprintf(
		"Hello %s,\n\nYour password reset code is %s. It expires in %d minutes.\n\nIf you did not request a password reset, you can ignore this email.\n",
		mail.Name, mail.Code, minutes,
	))
	msg.AddAlternative("text/html", fmt.Sprintf(`
		<h2>Reset Password</h2>
		<p>Hello %s,</p>
		<p>Your password reset code is <strong>%s</strong>. It expires in %d minutes.</p>
		<p>If you did not request a password reset, you can ignore this email.</p>
	`, mail.Name, mail.Code, minutes))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send reset code email: %w", err)
	}
	return nil
}

// LogMailer records that a code was issued without delivering it. The code
// itself is not logged.
type LogMailer struct{}

func (LogMailer) SendResetCode(mail ResetCodeMail) error {
	logger.Info("Reset code issued (mail delivery disabled)", map[string]interface{}{
		"email":      mail.Email,
		"expires_at": mail.ExpiresAt,
	})
	return nil
}
