package handlers

import (
	"net/http"

	"time2care_backend/internal/logger"
	"time2care_backend/internal/services"
	"time2care_backend/internal/services/dto"
	"time2care_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type EmailHandler struct {
	*BaseHandler
	emailService *services.EmailService
}

func NewEmailHandler(base *BaseHandler, emailService *services.EmailService) *EmailHandler {
	return &EmailHandler{
		BaseHandler:  base,
		emailService: emailService,
	}
}

func (h *EmailHandler) RegisterRoutes(rg *gin.RouterGroup) {
	emailGroup := rg.Group("/email")
	{
		emailGroup.POST("/contact", h.SendContact)
	}
}

// SendContact отправляет письмо. Ошибка доставки возвращается клиенту как {success:false}.
func (h *EmailHandler) SendContact(c *gin.Context) {
	var req dto.ContactEmailRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Text == "" && req.HTML == "" {
		h.fail(c, apperrors.ValidationError(map[string]string{
			"text": "Either text or html is required",
		}))
		return
	}

	response, err := h.emailService.SendContactEmail(c.Request.Context(), &req)
	if err != nil {
		logger.CtxWithError(c.Request.Context(), "Contact email failed", err)

		status := http.StatusBadGateway
		message := "Failed to send email"
		if appErr, ok := apperrors.AsAppError(err); ok {
			status = appErr.HTTPCode
			message = appErr.Message
		}
		c.JSON(status, dto.ContactEmailResponse{Success: false, Error: message})
		return
	}

	c.JSON(http.StatusOK, response)
}
