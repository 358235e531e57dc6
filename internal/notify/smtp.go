// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

// Package notify sends operator-facing notifications (ban events,
// registration confirmations) over SMTP, gated by config.SMTP.Enabled.
package notify

import (
	"fmt"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/ionovox/server/internal/apperror"
	"github.com/ionovox/server/internal/config"
)

// Sender sends plain-HTML notification emails over the configured SMTP
// relay. A zero-value Sender with Enabled false is safe to call Send on;
// it returns an error rather than silently dropping the message.
type Sender struct {
	cfg config.SMTP
}

// NewSender wraps cfg as a Sender.
func NewSender(cfg config.SMTP) *Sender {
	return &Sender{cfg: cfg}
}

// Send delivers one email. Per spec's ambient-stack carry-over, the server
// name identifying the "From" display name is the caller's responsibility
// (passed as fromName) rather than hardcoded here.
func (s *Sender) Send(fromName, toEmail, subject, body string) error {
	if !s.cfg.Enabled {
		return apperror.New(apperror.KindValidation, "smtp notifications are disabled")
	}

	var authClient sasl.Client
	switch s.cfg.AuthMethod {
	case config.SMTPAuthMethodPlain:
		authClient = sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)
	case config.SMTPAuthMethodLogin:
		authClient = sasl.NewLoginClient(s.cfg.Username, s.cfg.Password)
	case config.SMTPAuthMethodNone:
		authClient = nil
	default:
		return apperror.New(apperror.KindValidation, fmt.Sprintf("unsupported smtp auth method %q", s.cfg.AuthMethod))
	}

	msg := strings.NewReader(
		fmt.Sprintf("From: %s <%s>\r\n", fromName, s.cfg.From) +
			fmt.Sprintf("To: %s\r\n", toEmail) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"Mime-Version: 1.0;\r\n" +
			"Content-Type: text/html; charset=\"UTF-8\";\r\n" +
			"Content-Transfer-Encoding: 7bit;\r\n" +
			"\r\n<html><body>" + body + "\r\n</body></html>\r\n",
	)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var err error
	if s.cfg.TLS == config.SMTPTLSImplicit {
		err = smtp.SendMailTLS(addr, authClient, s.cfg.From, []string{toEmail}, msg)
	} else {
		err = smtp.SendMail(addr, authClient, s.cfg.From, []string{toEmail}, msg)
	}
	if err != nil {
		return apperror.Wrap(apperror.KindTransport, "send notification email", err)
	}
	return nil
}
