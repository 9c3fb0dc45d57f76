package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"ramani.co.tz/internal/config"
	"ramani.co.tz/internal/obs"
)

// SMTP delivers mail through a single SMTP relay. One attempt per message;
// callers decide what a failure means.
type SMTP struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

var _ Notifier = (*SMTP)(nil)

func NewSMTP(cfg config.SMTPConfig, logger *zap.Logger) *SMTP {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTP{cfg: cfg, logger: logger}
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	subject, body, err := Render(msg)
	if err != nil {
		obs.EmailFailed(string(msg.Kind))
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	payload := buildMIME(s.cfg.From, msg.To, subject, body)
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{msg.To}, payload); err != nil {
		obs.EmailFailed(string(msg.Kind))
		s.logger.Error("email delivery failed",
			zap.String("kind", string(msg.Kind)),
			zap.String("recipient", msg.To),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	obs.EmailSent(string(msg.Kind))
	s.logger.Info("email sent",
		zap.String("kind", string(msg.Kind)),
		zap.String("recipient", msg.To),
	)
	return nil
}

func buildMIME(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: Ramani <%s>\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
