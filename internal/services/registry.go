package services

import (
	"time2care_backend/internal/auth"
	"time2care_backend/internal/email"
	"time2care_backend/internal/repositories"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService          AuthService
	PasswordResetService PasswordResetService
	EmailService         *EmailService
}

// Dependencies - общие зависимости сервисов
type Dependencies struct {
	UserRepo      repositories.UserRepository
	Hasher        *auth.Hasher
	Tokens        *auth.TokenIssuer
	Mailer        EmailSender
	Templates     *email.TemplateManager
	ResetLinkBase string
}

// NewServiceContainer собирает сервисы из зависимостей
func NewServiceContainer(deps Dependencies) *ServiceContainer {
	return &ServiceContainer{
		AuthService: NewAuthService(deps.UserRepo, deps.Hasher, deps.Tokens),
		PasswordResetService: NewPasswordResetService(
			deps.UserRepo,
			deps.Hasher,
			deps.Tokens,
			deps.Mailer,
			deps.Templates,
			deps.ResetLinkBase,
		),
		EmailService: NewEmailService(deps.Mailer),
	}
}
