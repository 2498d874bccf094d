package email

import "time"

// Config - параметры почтового шлюза
type Config struct {
	// SendGridAPIKey - если задан, используется HTTP API SendGrid, SMTP не трогается
	SendGridAPIKey string

	SMTPHost string
	SMTPPort int
	Username string
	Password string

	FromEmail string
	FromName  string

	// HandshakeTimeout - ограничение на подключение и аутентификацию SMTP
	HandshakeTimeout time.Duration
	// IdleTimeout - после такого простоя SMTP-соединение переоткрывается перед отправкой
	IdleTimeout time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		SMTPHost:         "smtp.gmail.com",
		SMTPPort:         587,
		FromName:         "Time2Care",
		HandshakeTimeout: 60 * time.Second,
		IdleTimeout:      30 * time.Second,
	}
}

func (c Config) useSendGrid() bool {
	return c.SendGridAPIKey != ""
}
