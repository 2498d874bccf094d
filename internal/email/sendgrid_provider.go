package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"time2care_backend/pkg/apperrors"
)

// SendGridClient - часть клиента sendgrid-go, которую использует SendGridSender
type SendGridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender отправляет письма через HTTP API SendGrid.
// Соединение заранее не устанавливается.
type SendGridSender struct {
	client    SendGridClient
	fromEmail string
	fromName  string
}

// NewSendGridSender создает транспорт SendGrid. client == nil - настоящий клиент.
func NewSendGridSender(cfg Config, client SendGridClient) *SendGridSender {
	if client == nil {
		client = sendgrid.NewSendClient(cfg.SendGridAPIKey)
	}
	return &SendGridSender{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

func (s *SendGridSender) Name() string { return "sendgrid" }

func (s *SendGridSender) Close() error { return nil }

func (s *SendGridSender) Send(ctx context.Context, msg *Message) (*SendResult, error) {
	if s.fromEmail == "" {
		return nil, apperrors.EmailError(nil, apperrors.CodeEmailNotConfigured, "Sender address is not configured")
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", msg.To)
	m := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return nil, apperrors.EmailError(err, apperrors.CodeEmailDeliveryFailed, "Failed to send email")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		cause := fmt.Errorf("sendgrid responded with status %d: %s", resp.StatusCode, resp.Body)
		return nil, apperrors.EmailError(cause, apperrors.CodeEmailDeliveryFailed, "Email provider rejected the message")
	}

	return &SendResult{MessageID: headerValue(resp.Headers, "X-Message-Id")}, nil
}

func headerValue(headers map[string][]string, key string) string {
	if values := http.Header(headers).Values(key); len(values) > 0 {
		return values[0]
	}
	// rest.Response не канонизирует ключи
	if values, ok := headers[key]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}
