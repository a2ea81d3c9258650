package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/jwenlim/accounts-be/internal/config"
)

// Sender delivers account emails. Handlers depend on this interface so
// tests can substitute a recording double.
type Sender interface {
	SendPasswordReset(to, link string) error
}

// SMTPSender delivers mail over SMTP.
type SMTPSender struct {
	cfg config.SMTP
}

// NewSMTPSender creates a sender from SMTP settings.
func NewSMTPSender(cfg config.SMTP) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// SendPasswordReset emails a reset link to the recipient.
func (s *SMTPSender) SendPasswordReset(to, link string) error {
	if s.cfg.Host == "" || s.cfg.From == "" {
		return fmt.Errorf("smtp config missing")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Reset your password")
	m.SetBody("text/html", resetBody(link))

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func resetBody(link string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Password reset requested</h2>
    <p>Click the link below to choose a new password. The link is valid for one hour.</p>
    <p><a href="%s">%s</a></p>
    <p>If you did not request this, you can ignore this email.</p>
  </div>
</body>
</html>`, link, link)
}
