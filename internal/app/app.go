package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"time2care_backend/database"
	"time2care_backend/internal/auth"
	"time2care_backend/internal/config"
	"time2care_backend/internal/email"
	"time2care_backend/internal/handlers"
	"time2care_backend/internal/logger"
	"time2care_backend/internal/middleware"
	"time2care_backend/internal/repositories"
	"time2care_backend/internal/routes"
	"time2care_backend/internal/services"
	"time2care_backend/internal/storage"
	"time2care_backend/internal/validator"
	"time2care_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func Run() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	apperrors.DebugErrors = cfg.Server.Env == "development"
	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Connecting to database...")
	gormDB, err := database.Connect(database.Options{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		LogSQL:       cfg.Server.Env == "development",
	})
	if err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}

	gateway := newEmailGateway(cfg)
	defer gateway.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к SMTP может занять до минуты; сервер не ждет его
	go gateway.Start(ctx)

	ginRouter, container, err := SetupRouter(cfg, gormDB, gateway)
	if err != nil {
		logger.Fatal("Failed to set up router", "error", err)
	}

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(fmt.Sprintf("🚀 Server starting on %s", address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	// Дожидаемся писем сброса, которые уже в пути, до закрытия SMTP
	container.PasswordResetService.Wait()
}

func newEmailGateway(cfg *config.Config) *email.Gateway {
	gateway := email.NewGateway(email.Config{
		SendGridAPIKey:   cfg.Email.SendGridAPIKey,
		SMTPHost:         cfg.Email.SMTPHost,
		SMTPPort:         cfg.Email.SMTPPort,
		Username:         cfg.Email.SMTPUsername,
		Password:         cfg.Email.SMTPPassword,
		FromEmail:        cfg.FromEmail(),
		FromName:         cfg.Email.FromName,
		HandshakeTimeout: cfg.HandshakeTimeout(),
		IdleTimeout:      email.DefaultConfig().IdleTimeout,
	})
	logger.Info("Email gateway configured", "transport", gateway.Transport())
	return gateway
}

// SetupRouter собирает сервисы и хэндлеры поверх готового пула БД и почтового шлюза.
// Контейнер сервисов возвращается для остановки фоновой работы.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB, mailer services.EmailSender) (*gin.Engine, *services.ServiceContainer, error) {
	localStorage, err := storage.NewLocalStorage(storage.Config{
		BasePath: cfg.Upload.Dir,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "dir", localStorage.BasePath())

	// 1. Инициализируем сервисы
	serviceContainer, tokens, err := initializeServices(cfg, gormDB, mailer)
	if err != nil {
		return nil, nil, err
	}

	// 2. Инициализируем хэндлеры
	avatars := storage.NewAvatarStore(localStorage, cfg.Upload.MaxSize)
	appHandlers := initializeHandlers(serviceContainer, avatars, tokens)

	// 3. Инициализируем Gin и маршруты
	ginRouter := initializeGinRouter()
	routes.RegisterRoutes(ginRouter, appHandlers, localStorage.BasePath())

	return ginRouter, serviceContainer, nil
}

func initializeServices(cfg *config.Config, gormDB *gorm.DB, mailer services.EmailSender) (*services.ServiceContainer, *auth.TokenIssuer, error) {
	hasher, err := auth.NewHasher(auth.DefaultPasswordCost, cfg.Auth.HashWorkers)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create password hasher: %w", err)
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.SessionTTL())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	container := services.NewServiceContainer(services.Dependencies{
		UserRepo:      repositories.NewUserRepository(gormDB),
		Hasher:        hasher,
		Tokens:        tokens,
		Mailer:        mailer,
		Templates:     email.NewTemplateManager(),
		ResetLinkBase: cfg.Auth.ResetLinkBase,
	})
	return container, tokens, nil
}

func initializeHandlers(services *services.ServiceContainer, avatars *storage.AvatarStore, tokens *auth.TokenIssuer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		AuthHandler: handlers.NewAuthHandler(
			baseHandler,
			services.AuthService,
			services.PasswordResetService,
			avatars,
			tokens,
		),
		EmailHandler: handlers.NewEmailHandler(baseHandler, services.EmailService),
	}
}

func initializeGinRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	return router
}
