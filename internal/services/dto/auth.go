package dto

import (
	"time2care_backend/internal/models"
)

// RegisterRequest - запрос регистрации
type RegisterRequest struct {
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required"`
	Phone    *string         `json:"phone,omitempty"`
	Role     models.UserRole `json:"role" binding:"required" validate:"is-user-role"`
}

// LoginRequest - запрос входа
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse - токен сессии и данные из claims
type LoginResponse struct {
	Token  string          `json:"token"`
	UserID string          `json:"user_id"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
}

// ChangePasswordRequest - смена пароля авторизованным пользователем
type ChangePasswordRequest struct {
	Password             string `json:"password" binding:"required"`
	ConfirmationPassword string `json:"confirmationPassword" binding:"required"`
}

// ForgotPasswordRequest - запрос ссылки для сброса пароля
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetWithTokenRequest - сброс пароля по токену из ссылки
type ResetWithTokenRequest struct {
	Token                string `json:"token" binding:"required"`
	Password             string `json:"password" binding:"required"`
	ConfirmationPassword string `json:"confirmationPassword" binding:"required"`
}

// MessageResponse - ответ с текстовым сообщением
type MessageResponse struct {
	Message string `json:"message"`
}
