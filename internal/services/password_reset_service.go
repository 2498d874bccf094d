package services

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"time2care_backend/internal/auth"
	"time2care_backend/internal/email"
	"time2care_backend/internal/logger"
	"time2care_backend/internal/repositories"
	"time2care_backend/internal/services/dto"
	"time2care_backend/pkg/apperrors"
)

// Ответы операций сброса пароля
const (
	MessageResetRequested  = "If the email exists, a password reset link has been sent."
	MessagePasswordChanged = "Password has been changed successfully"
)

// DefaultResetLinkBase - deep link мобильного приложения
const DefaultResetLinkBase = "time2care://reset-password"

// resetEmailTimeout - потолок на одну фоновую отправку (SMTP handshake до 60s плюс сама отправка)
const resetEmailTimeout = 90 * time.Second

// EmailSender - то, что нужно сервисам от почтового шлюза
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, text, html string) (*email.SendResult, error)
}

type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) (*dto.MessageResponse, error)
	ResetWithToken(ctx context.Context, token, password, confirmation string) (*dto.MessageResponse, error)
	// Wait ждет завершения писем, запущенных RequestReset
	Wait()
}

type PasswordResetServiceImpl struct {
	userRepo  repositories.UserRepository
	hasher    *auth.Hasher
	tokens    *auth.TokenIssuer
	mailer    EmailSender
	templates *email.TemplateManager
	linkBase  string

	pending sync.WaitGroup
}

func NewPasswordResetService(
	userRepo repositories.UserRepository,
	hasher *auth.Hasher,
	tokens *auth.TokenIssuer,
	mailer EmailSender,
	templates *email.TemplateManager,
	linkBase string,
) PasswordResetService {
	if linkBase == "" {
		linkBase = DefaultResetLinkBase
	}
	if templates == nil {
		templates = email.NewTemplateManager()
	}
	return &PasswordResetServiceImpl{
		userRepo:  userRepo,
		hasher:    hasher,
		tokens:    tokens,
		mailer:    mailer,
		templates: templates,
		linkBase:  linkBase,
	}
}

// RequestReset выпускает токен сброса и отправляет ссылку.
// Ответ одинаковый для существующего и несуществующего email.
func (s *PasswordResetServiceImpl) RequestReset(ctx context.Context, address string) (*dto.MessageResponse, error) {
	resp := &dto.MessageResponse{Message: MessageResetRequested}

	user, err := s.userRepo.FindByEmail(ctx, address)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			logger.CtxInfo(ctx, "Password reset requested for unknown email")
			return resp, nil
		}
		return nil, apperrors.DatabaseError(err)
	}

	token, err := s.tokens.IssueResetToken(user.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	// Новый хеш перезаписывает предыдущий: старая ссылка перестает работать
	if err := s.userRepo.SetResetToken(ctx, user.ID, auth.HashResetToken(token)); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	// Письмо уходит в фоне: время ответа не должно зависеть от существования аккаунта
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resetEmailTimeout)
		defer cancel()
		s.sendResetEmail(sendCtx, user.Email, token)
	}()
	return resp, nil
}

func (s *PasswordResetServiceImpl) Wait() {
	s.pending.Wait()
}

// sendResetEmail - ошибки доставки логируются и не меняют ответ
func (s *PasswordResetServiceImpl) sendResetEmail(ctx context.Context, to, token string) {
	rendered, err := s.templates.RenderPasswordReset(s.resetLink(token))
	if err != nil {
		logger.CtxWithError(ctx, "Failed to render password reset email", err)
		return
	}

	if _, err := s.mailer.SendEmail(ctx, to, rendered.Subject, rendered.Text, rendered.HTML); err != nil {
		logger.CtxWithError(ctx, "Failed to send password reset email", err)
	}
}

func (s *PasswordResetServiceImpl) resetLink(token string) string {
	return s.linkBase + "?" + url.Values{"token": {token}}.Encode()
}

// ResetWithToken меняет пароль по токену из ссылки.
// Любая проблема с токеном дает одну и ту же ошибку ErrLinkExpired.
func (s *PasswordResetServiceImpl) ResetWithToken(ctx context.Context, token, password, confirmation string) (*dto.MessageResponse, error) {
	if err := checkNewPassword(password, confirmation); err != nil {
		return nil, err
	}

	claims, err := s.tokens.VerifyReset(token)
	if err != nil {
		var tokenErr *auth.TokenError
		if errors.As(err, &tokenErr) {
			logger.CtxWarn(ctx, "Reset token rejected", "reason", tokenErr.Reason)
		}
		return nil, apperrors.ErrLinkExpired
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrLinkExpired
		}
		return nil, apperrors.DatabaseError(err)
	}

	// Подпись верна, но ссылка уже использована или заменена новой
	if !user.HasPendingReset() || !auth.ResetTokenMatches(token, *user.ResetPasswordToken) {
		logger.CtxWarn(ctx, "Reset token revoked", "user_id", user.ID)
		return nil, apperrors.ErrLinkExpired
	}

	hashed, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	err = s.userRepo.ConsumeResetToken(ctx, user.ID, *user.ResetPasswordToken, hashed)
	if err != nil {
		if errors.Is(err, repositories.ErrResetTokenMismatch) {
			// Параллельный запрос успел раньше
			return nil, apperrors.ErrLinkExpired
		}
		return nil, apperrors.DatabaseError(err)
	}

	logger.CtxInfo(ctx, "Password reset completed", "user_id", user.ID)
	return &dto.MessageResponse{Message: MessagePasswordChanged}, nil
}
