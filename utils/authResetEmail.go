package utils

import (
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Mailer delivers password reset codes.
type Mailer interface {
	SendResetCode(email, code string) error
}

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// SMTPMailer sends mail through gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer returns an SMTP mailer, or a mailer that only logs when SMTP is not configured.
func NewMailer(cfg SMTPConfig, log zerolog.Logger) Mailer {
	if cfg.Host == "" {
		return &logMailer{log: log}
	}
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &SMTPMailer{dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass), from: from}
}

func (m *SMTPMailer) SendResetCode(email, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Password Reset Code")
	msg.SetBody("text/plain", "Your password reset code is: "+code+"\nIt expires in 15 minutes.")
	msg.AddAlternative("text/html", `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background-color: #f4f4f4;">
	<div style="background-color: #ffffff; margin: 20px auto; padding: 20px; border-radius: 8px; max-width: 600px;">
		<h1 style="color: #333333;">Password Reset Code</h1>
		<p style="color: #666666;">Your password reset code is:</p>
		<p style="font-weight: bold; color: #007bff;">`+code+`</p>
		<p style="color: #666666;">It expires in 15 minutes. If you did not request a password reset, please ignore this email.</p>
	</div>
</body>
</html>`)
	return m.dialer.DialAndSend(msg)
}

type logMailer struct {
	log zerolog.Logger
}

func (m *logMailer) SendResetCode(email, _ string) error {
	m.log.Warn().Str("email", email).Msg("smtp not configured, reset code email skipped")
	return nil
}
