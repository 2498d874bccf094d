package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"time2care_backend/internal/auth"
	"time2care_backend/internal/logger"
	"time2care_backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (*gin.Engine, *auth.TokenIssuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewTokenIssuer("middleware-secret", 0)
	require.NoError(t, err)

	r := gin.New()
	r.Use(RequestIDMiddleware(), CORSMiddleware())
	r.GET("/rid", func(c *gin.Context) {
		c.String(http.StatusOK, logger.RequestID(c.Request.Context()))
	})

	protected := r.Group("/", AuthMiddleware(tokens))
	protected.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserID))
	})
	protected.GET("/company", RequireRoles(models.UserRoleCompany), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, tokens
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID_KeepsClientValue(t *testing.T) {
	r, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/rid", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))

	w = do(r, http.MethodGet, "/rid", "")
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestAuthMiddleware(t *testing.T) {
	r, tokens := newRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "garbage").Code)

	reset, err := tokens.IssueResetToken("u-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", reset).Code, "reset token is not a session")

	session, _, err := tokens.IssueSession("u-1", "a@b.co", models.UserRoleUser)
	require.NoError(t, err)
	w := do(r, http.MethodGet, "/me", session)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-1", w.Body.String())
}

func TestRequireRoles(t *testing.T) {
	r, tokens := newRouter(t)

	userToken, _, err := tokens.IssueSession("u-1", "a@b.co", models.UserRoleUser)
	require.NoError(t, err)
	companyToken, _, err := tokens.IssueSession("c-1", "c@b.co", models.UserRoleCompany)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/company", userToken).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/company", companyToken).Code)
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newRouter(t)

	w := do(r, http.MethodOptions, "/me", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAccessLevel(t *testing.T) {
	assert.Equal(t, "INFO", accessLevel(200).String())
	assert.Equal(t, "WARN", accessLevel(404).String())
	assert.Equal(t, "ERROR", accessLevel(502).String())
}
