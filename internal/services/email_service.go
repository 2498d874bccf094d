package services

import (
	"context"

	"time2care_backend/internal/services/dto"
)

// EmailService - отправка произвольных писем (контактная форма)
type EmailService struct {
	mailer EmailSender
}

// NewEmailService создает новый экземпляр EmailService
func NewEmailService(mailer EmailSender) *EmailService {
	return &EmailService{
		mailer: mailer,
	}
}

// SendContactEmail отправляет письмо. В отличие от сброса пароля
// ошибка доставки возвращается вызывающему.
func (s *EmailService) SendContactEmail(ctx context.Context, req *dto.ContactEmailRequest) (*dto.ContactEmailResponse, error) {
	res, err := s.mailer.SendEmail(ctx, req.To, req.Subject, req.Text, req.HTML)
	if err != nil {
		return nil, err
	}
	return &dto.ContactEmailResponse{Success: true, MessageID: res.MessageID}, nil
}
