package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// ErrMailDisabled возвращается, если SMTP-сервер не настроен.
var ErrMailDisabled = errors.New("smtp is not configured")

// Mailer доставляет оповещения.
type Mailer interface {
	Send(ctx context.Context, n Notification) error
}

// SMTPMailer отправляет оповещения через SMTP.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPMailer создаёт отправителя. Если from пуст, используется username.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	if from == "" {
		from = username
	}
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send формирует письмо и отправляет его одним подключением.
func (s *SMTPMailer) Send(ctx context.Context, n Notification) error {
	if s.host == "" {
		return ErrMailDisabled
	}

	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("invalid sender %q: %w", s.from, err)
	}
	if err := msg.To(n.Recipient); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", n.Recipient, err)
	}
	msg.Subject(n.Subject())
	msg.SetBodyString(mail.TypeTextPlain, n.Body())

	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.username),
			mail.WithPassword(s.password),
		)
	}
	client, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}
	return nil
}

// LogMailer только пишет оповещение в журнал. Используется без SMTP.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer создаёт LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send пишет оповещение в журнал.
func (l *LogMailer) Send(_ context.Context, n Notification) error {
	l.logger.Warn("alert (smtp disabled)",
		zap.String("recipient", n.Recipient),
		zap.String("subject", n.Subject()),
	)
	return nil
}
