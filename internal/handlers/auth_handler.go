package handlers

import (
	"errors"
	"net/http"

	"time2care_backend/internal/auth"
	"time2care_backend/internal/logger"
	"time2care_backend/internal/middleware"
	"time2care_backend/internal/models"
	"time2care_backend/internal/services"
	"time2care_backend/internal/services/dto"
	"time2care_backend/internal/storage"
	"time2care_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	*BaseHandler
	authService  services.AuthService
	resetService services.PasswordResetService
	avatars      *storage.AvatarStore
	tokens       *auth.TokenIssuer
}

func NewAuthHandler(
	base *BaseHandler,
	authService services.AuthService,
	resetService services.PasswordResetService,
	avatars *storage.AvatarStore,
	tokens *auth.TokenIssuer,
) *AuthHandler {
	return &AuthHandler{
		BaseHandler:  base,
		authService:  authService,
		resetService: resetService,
		avatars:      avatars,
		tokens:       tokens,
	}
}

// RegisterRoutes регистрирует все маршруты для аутентификации
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/forgot-password", h.ForgotPassword)
		authGroup.POST("/reset-password-with-token", h.ResetPasswordWithToken)
	}

	protected := rg.Group("/auth")
	protected.Use(middleware.AuthMiddleware(h.tokens))
	{
		protected.GET("/me", h.GetMe)
		protected.PATCH("/profile", h.UpdateProfile)
		protected.POST("/reset-password", h.ChangePassword)
		protected.GET("/company-only", middleware.RequireRoles(models.UserRoleCompany), h.CompanyOnly)
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.bind(c, &req) {
		return
	}

	response, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetMe(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile принимает JSON или multipart/form-data с необязательным файлом "avatar"
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}

	var avatar *string
	if header, err := c.FormFile("avatar"); err == nil {
		filename, err := h.avatars.Save(c.Request.Context(), header)
		if err != nil {
			h.handleUploadError(c, err)
			return
		}
		avatar = &filename
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		h.fail(c, apperrors.NewBadRequestError("Invalid avatar upload"))
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), userID, &req, avatar)
	if err != nil {
		if avatar != nil {
			h.discardAvatar(c, *avatar)
		}
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if !h.bind(c, &req) {
		return
	}

	response, err := h.authService.ChangePassword(c.Request.Context(), userID, req.Password, req.ConfirmationPassword)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ForgotPassword всегда отвечает одним и тем же сообщением
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !h.bind(c, &req) {
		return
	}

	response, err := h.resetService.RequestReset(c.Request.Context(), req.Email)
	if err != nil {
		// Не раскрываем внутренние ошибки в этом эндпоинте
		logger.CtxWithError(c.Request.Context(), "Password reset request failed", err)
		response = &dto.MessageResponse{Message: services.MessageResetRequested}
	}

	c.JSON(http.StatusOK, response)
}

func (h *AuthHandler) ResetPasswordWithToken(c *gin.Context) {
	var req dto.ResetWithTokenRequest
	if !h.bind(c, &req) {
		return
	}

	response, err := h.resetService.ResetWithToken(c.Request.Context(), req.Token, req.Password, req.ConfirmationPassword)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *AuthHandler) CompanyOnly(c *gin.Context) {
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Access granted for company accounts"})
}

func (h *AuthHandler) handleUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrFileTooLarge):
		h.fail(c, apperrors.NewBadRequestError("Avatar file is too large"))
	case errors.Is(err, storage.ErrUnsupportedType):
		h.fail(c, apperrors.NewBadRequestError("Avatar must be a JPEG, PNG, WebP or GIF image"))
	default:
		h.fail(c, apperrors.InternalError(err))
	}
}

// discardAvatar удаляет файл, загруженный в неудавшемся обновлении профиля
func (h *AuthHandler) discardAvatar(c *gin.Context, filename string) {
	if err := h.avatars.Remove(c.Request.Context(), filename); err != nil {
		logger.CtxWithError(c.Request.Context(), "Failed to remove orphaned avatar", err, "file", filename)
	}
}
