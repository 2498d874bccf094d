package middleware

import (
	"strings"

	"time2care_backend/internal/auth"
	"time2care_backend/internal/logger"
	"time2care_backend/internal/models"
	"time2care_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// Ключи gin.Context
const (
	ContextUserID = "userID"
	ContextRole   = "role"
	ContextClaims = "claims"
)

// AuthMiddleware - middleware проверки JWT сессии
func AuthMiddleware(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authorization header missing or invalid"))
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := tokens.VerifySession(tokenStr)
		if err != nil {
			logger.CtxWarn(c.Request.Context(), "Session token rejected", "error", err.Error())
			apperrors.HandleError(c, apperrors.ErrInvalidToken)
			return
		}

		// Сохраняем claims в контекст
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextClaims, claims)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

// RequireRoles пропускает запрос, только если роль из сессии входит в roles.
// Ставится после AuthMiddleware.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	required := auth.Roles(roles...)

	return func(c *gin.Context) {
		claims, _ := GetClaims(c)
		if err := auth.Authorize(required, claims); err != nil {
			logger.CtxWarn(c.Request.Context(), "Access denied", "path", c.FullPath())
			apperrors.HandleError(c, err)
			return
		}
		c.Next()
	}
}

// GetClaims извлекает claims сессии из контекста
func GetClaims(c *gin.Context) (*auth.SessionClaims, bool) {
	val, exists := c.Get(ContextClaims)
	if !exists {
		return nil, false
	}
	claims, ok := val.(*auth.SessionClaims)
	return claims, ok
}
