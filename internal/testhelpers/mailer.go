package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"time2care_backend/internal/email"
	"time2care_backend/pkg/apperrors"
)

// SentEmail - письмо, перехваченное FakeMailer
type SentEmail struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// FakeMailer запоминает письма вместо отправки. Err - ошибка, которую вернет каждая отправка,
// Delay - задержка перед отправкой (медленный SMTP).
type FakeMailer struct {
	mu    sync.Mutex
	Sent  []SentEmail
	Err   error
	Delay time.Duration
}

func (m *FakeMailer) SendEmail(ctx context.Context, to, subject, text, html string) (*email.SendResult, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	m.Sent = append(m.Sent, SentEmail{To: to, Subject: subject, Text: text, HTML: html})
	return &email.SendResult{MessageID: fmt.Sprintf("fake-%d", len(m.Sent))}, nil
}

// Count - число отправленных писем
func (m *FakeMailer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// Last - последнее отправленное письмо
func (m *FakeMailer) Last() (SentEmail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentEmail{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}

// DeliveryFailure - типичная ошибка транспорта
func DeliveryFailure() error {
	return apperrors.EmailError(fmt.Errorf("smtp: 421 service not available"), apperrors.CodeEmailDeliveryFailed, "Failed to send email")
}
