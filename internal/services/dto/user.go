package dto

import (
	"time2care_backend/internal/models"
)

// UserResponse - публичная проекция пользователя
type UserResponse struct {
	ID     string          `json:"id"`
	Email  string          `json:"email"`
	Phone  *string         `json:"phone"`
	Role   models.UserRole `json:"role"`
	Avatar *string         `json:"avatar,omitempty"`
}

// UpdateProfileRequest - частичное обновление профиля.
// Пустые поля не трогаются.
type UpdateProfileRequest struct {
	Email string `json:"email" form:"email" binding:"omitempty,email"`
	Phone string `json:"phone" form:"phone"`
}

// ContactEmailRequest - отправка письма через почтовый шлюз
type ContactEmailRequest struct {
	To      string `json:"to" binding:"required,email"`
	Subject string `json:"subject" binding:"required"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// ContactEmailResponse - результат отправки
type ContactEmailResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewUserResponse строит проекцию без аватара (для регистрации)
func NewUserResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:    u.ID,
		Email: u.Email,
		Phone: u.Phone,
		Role:  u.Role,
	}
}

// NewUserResponseWithAvatar - полная проекция для getMe и профиля
func NewUserResponseWithAvatar(u *models.User) *UserResponse {
	resp := NewUserResponse(u)
	resp.Avatar = u.Avatar
	return resp
}
