package handlers

import (
	"errors"

	"time2care_backend/internal/logger"
	"time2care_backend/internal/middleware"
	"time2care_backend/internal/validator"
	"time2care_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// BaseHandler - общая часть всех обработчиков: разбор запроса и ответ с ошибкой.
type BaseHandler struct {
	validator *validator.Validator
}

func NewBaseHandler(v *validator.Validator) *BaseHandler {
	return &BaseHandler{validator: v}
}

// bind разбирает тело (JSON или form) и проверяет DTO.
// При false ответ с ошибкой уже записан.
func (h *BaseHandler) bind(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := c.ShouldBind(obj); err != nil {
		logger.CtxWarn(ctx, "Failed to bind request body", "error", err.Error(), "path", c.FullPath())
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid request body"))
		return false
	}

	err := h.validator.Validate(obj)
	if err == nil {
		return true
	}

	var fieldErrs validator.FieldErrors
	if errors.As(err, &fieldErrs) {
		logger.CtxWarn(ctx, "Request validation failed", "fields", map[string]string(fieldErrs), "path", c.FullPath())
		apperrors.HandleError(c, apperrors.ValidationError(fieldErrs))
		return false
	}

	logger.CtxWithError(ctx, "Validator misuse", err, "path", c.FullPath())
	apperrors.HandleError(c, apperrors.InternalError(err))
	return false
}

// fail пишет ошибку сервиса. Не-AppError считается внутренней и не раскрывается.
func (h *BaseHandler) fail(c *gin.Context, err error) {
	ctx := c.Request.Context()

	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		logger.CtxWithError(ctx, "Unexpected service error", err, "path", c.FullPath())
		apperrors.HandleError(c, apperrors.InternalError(err))
		return
	}

	if appErr.HTTPCode >= 500 {
		logger.CtxWithError(ctx, "Service failure", appErr, "code", appErr.Code, "path", c.FullPath())
	} else {
		logger.CtxInfo(ctx, "Request rejected", "code", appErr.Code, "path", c.FullPath())
	}
	apperrors.HandleError(c, appErr)
}

// currentUserID достает id пользователя, положенный AuthMiddleware.
func (h *BaseHandler) currentUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		logger.CtxWarn(c.Request.Context(), "🚫 No authenticated user in context", "path", c.FullPath(), "ip", c.ClientIP())
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("User not authenticated"))
		return "", false
	}
	return userID, true
}
