package email

import (
	"context"
	"fmt"

	"time2care_backend/internal/logger"
)

// Sender - транспорт доставки. Реализации: SendGridSender, SMTPSender.
type Sender interface {
	Send(ctx context.Context, msg *Message) (*SendResult, error)
	Name() string
	Close() error
}

// initializer - транспорт, которому нужно установить соединение заранее
type initializer interface {
	Init(ctx context.Context) error
}

// Gateway отправляет письма через транспорт, выбранный один раз при создании:
// SendGrid, если есть API-ключ, иначе SMTP.
type Gateway struct {
	sender Sender
}

// Option настраивает Gateway (в основном для тестов)
type Option func(*gatewayOptions)

type gatewayOptions struct {
	dialer         Dialer
	sendgridClient SendGridClient
}

// WithSMTPDialer подменяет SMTP-дайлер
func WithSMTPDialer(d Dialer) Option {
	return func(o *gatewayOptions) { o.dialer = d }
}

// WithSendGridClient подменяет клиент SendGrid
func WithSendGridClient(c SendGridClient) Option {
	return func(o *gatewayOptions) { o.sendgridClient = c }
}

// NewGateway выбирает транспорт по наличию конфигурации
func NewGateway(cfg Config, opts ...Option) *Gateway {
	var o gatewayOptions
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.useSendGrid() {
		return &Gateway{sender: NewSendGridSender(cfg, o.sendgridClient)}
	}
	return &Gateway{sender: NewSMTPSender(cfg, o.dialer)}
}

// Transport - имя выбранного транспорта
func (g *Gateway) Transport() string {
	return g.sender.Name()
}

// Start пробует подготовить транспорт при старте приложения.
// Ошибка только логируется: следующая отправка попробует снова.
func (g *Gateway) Start(ctx context.Context) {
	init, ok := g.sender.(initializer)
	if !ok {
		logger.Info("Skipping SMTP initialization", "transport", g.sender.Name())
		return
	}
	if err := init.Init(ctx); err != nil {
		logger.Error("Failed to initialize email transport, continuing startup",
			"transport", g.sender.Name(),
			"error", err.Error(),
		)
		return
	}
	logger.Info("Email transport ready", "transport", g.sender.Name())
}

// SendEmail отправляет письмо. Ошибка всегда *apperrors.AppError класса Email.
func (g *Gateway) SendEmail(ctx context.Context, to, subject, text, html string) (*SendResult, error) {
	msg := &Message{To: to, Subject: subject, Text: text, HTML: html}

	result, err := g.sender.Send(ctx, msg)
	if err != nil {
		logger.CtxWithError(ctx, "Error sending email", err,
			"transport", g.sender.Name(),
			"to", to,
		)
		return nil, err
	}

	logger.CtxInfo(ctx, "Email sent",
		"transport", g.sender.Name(),
		"message_id", result.MessageID,
	)
	return result, nil
}

// Close освобождает соединение транспорта
func (g *Gateway) Close() error {
	if err := g.sender.Close(); err != nil {
		return fmt.Errorf("failed to close %s transport: %w", g.sender.Name(), err)
	}
	return nil
}
