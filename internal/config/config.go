package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN          string `yaml:"url"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
	} `yaml:"database"`

	Email struct {
		SendGridAPIKey   string `yaml:"sendgrid_api_key"`
		SMTPHost         string `yaml:"smtp_host"`
		SMTPPort         int    `yaml:"smtp_port"`
		SMTPUsername     string `yaml:"smtp_user"`
		SMTPPassword     string `yaml:"smtp_password"`
		From             string `yaml:"from"`
		FromName         string `yaml:"from_name"`
		HandshakeTimeout int    `yaml:"handshake_timeout"` // секунды
	} `yaml:"email"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // минуты, 0 - без exp
	} `yaml:"jwt"`

	Auth struct {
		ResetLinkBase string `yaml:"reset_link_base"`
		HashWorkers   int    `yaml:"hash_workers"`
	} `yaml:"auth"`

	Upload struct {
		Dir     string `yaml:"dir"`
		MaxSize int64  `yaml:"max_size"`
	} `yaml:"upload"`
}

// Load читает конфигурацию: .env (если есть) -> YAML (если есть) -> переменные окружения.
// Переменные окружения имеют наивысший приоритет.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	if err := loadFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	var cfg Config
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 3000
	cfg.Server.Env = "production"

	cfg.Database.MaxOpenConns = 20
	cfg.Database.MaxIdleConns = 5

	cfg.Email.SMTPHost = "smtp.gmail.com"
	cfg.Email.SMTPPort = 587
	cfg.Email.FromName = "Time2Care"
	cfg.Email.HandshakeTimeout = 60

	cfg.Auth.ResetLinkBase = "time2care://reset-password"
	cfg.Auth.HashWorkers = runtime.NumCPU()

	cfg.Upload.Dir = "./uploads"
	cfg.Upload.MaxSize = 5 * 1024 * 1024
	return &cfg
}

func loadFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open config file at %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse config file at %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Host, "SERVER_HOST")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setInt(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.Env, "SERVER_ENV")

	setString(&cfg.Database.DSN, "DATABASE_URL")

	setString(&cfg.Email.SendGridAPIKey, "SENDGRID_API_KEY")
	setString(&cfg.Email.SMTPHost, "SMTP_HOST")
	setInt(&cfg.Email.SMTPPort, "SMTP_PORT")
	setString(&cfg.Email.SMTPUsername, "EMAIL_USER")
	setString(&cfg.Email.SMTPPassword, "EMAIL_APP_PASSWORD")
	setString(&cfg.Email.From, "EMAIL_FROM")
	setString(&cfg.Email.FromName, "EMAIL_FROM_NAME")
	setInt(&cfg.Email.HandshakeTimeout, "EMAIL_HANDSHAKE_TIMEOUT")

	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setInt(&cfg.JWT.TTL, "JWT_TTL")

	setString(&cfg.Auth.ResetLinkBase, "RESET_LINK_BASE")
	setInt(&cfg.Auth.HashWorkers, "HASH_WORKERS")

	setString(&cfg.Upload.Dir, "UPLOAD_DIR")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Database.DSN == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Auth.HashWorkers <= 0 {
		c.Auth.HashWorkers = 1
	}
	return nil
}

// SessionTTL - время жизни токена сессии; 0 означает, что exp не ставится.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.JWT.TTL) * time.Minute
}

// HandshakeTimeout - ограничение на установку SMTP-соединения.
func (c *Config) HandshakeTimeout() time.Duration {
	if c.Email.HandshakeTimeout <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Email.HandshakeTimeout) * time.Second
}

// FromEmail - адрес отправителя. По умолчанию совпадает с логином SMTP (так требует Gmail).
func (c *Config) FromEmail() string {
	if c.Email.From != "" {
		return c.Email.From
	}
	return c.Email.SMTPUsername
}
