package testhelpers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"time2care_backend/internal/app"
	"time2care_backend/internal/config"
	"time2care_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestServer - HTTP сервер приложения поверх SQLite и FakeMailer
type TestServer struct {
	Server *httptest.Server
	DB     *gorm.DB
	Mailer   *FakeMailer
	Config   *config.Config
	Services *services.ServiceContainer
}

// TestConfig - конфигурация для тестового сервера
func TestConfig(t *testing.T) *config.Config {
	t.Helper()

	var cfg config.Config
	cfg.Server.Env = "test"
	cfg.JWT.Secret = "test-secret-key-for-time2care"
	cfg.Auth.ResetLinkBase = "time2care://reset-password"
	cfg.Auth.HashWorkers = 4
	cfg.Upload.Dir = t.TempDir()
	cfg.Upload.MaxSize = 1024 * 1024
	return &cfg
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := TestConfig(t)
	db := NewTestDB(t)
	mailer := &FakeMailer{}

	router, container, err := app.SetupRouter(cfg, db, mailer)
	require.NoError(t, err, "Не удалось собрать роутер")

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	t.Cleanup(container.PasswordResetService.Wait)

	return &TestServer{
		Server:   server,
		DB:       db,
		Mailer:   mailer,
		Config:   cfg,
		Services: container,
	}
}

func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err, "Ошибка кодирования JSON для запроса")
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	require.NoError(t, err, "Ошибка создания HTTP-запроса")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return ts.do(t, req)
}

// SendMultipart отправляет multipart/form-data с полями и одним файлом
func (ts *TestServer) SendMultipart(t *testing.T, method, path, token string, fields map[string]string, fileField, fileName string, content []byte) (*http.Response, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(method, ts.Server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return ts.do(t, req)
}

func (ts *TestServer) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()

	res, err := ts.Server.Client().Do(req)
	require.NoError(t, err, "Ошибка отправки HTTP-запроса")
	defer res.Body.Close()

	resBodyBytes, err := io.ReadAll(res.Body)
	require.NoError(t, err, "Ошибка чтения тела ответа")

	return res, string(resBodyBytes)
}
