package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"time2care_backend/internal/logger"
	"time2care_backend/pkg/apperrors"
)

// ErrHandshakeTimeout - SMTP-сервер не ответил за отведенное время
var ErrHandshakeTimeout = errors.New("smtp handshake timed out")

// Dialer устанавливает аутентифицированное SMTP-соединение. *gomail.Dialer подходит.
type Dialer interface {
	Dial() (gomail.SendCloser, error)
}

// SMTPSender отправляет письма через одно долгоживущее SMTP-соединение.
// Соединение открывается лениво, под мьютексом: параллельные отправители
// дожидаются одного handshake.
type SMTPSender struct {
	dialer      Dialer
	configured  bool
	fromEmail   string
	fromName    string
	timeout     time.Duration
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	conn     gomail.SendCloser
	lastUsed time.Time

	// inflight - handshake, брошенный по таймауту и еще не вернувшийся.
	// gomail не ставит deadline на SMTP-диалог, поэтому новый Dial не
	// начинается, пока висит старый: следующая попытка ждет его же.
	inflight chan dialResult
}

// NewSMTPSender создает транспорт. dialer == nil - gomail.Dialer по конфигурации.
func NewSMTPSender(cfg Config, dialer Dialer) *SMTPSender {
	if dialer == nil {
		d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password)
		d.TLSConfig = &tls.Config{ServerName: cfg.SMTPHost, MinVersion: tls.VersionTLS12}
		dialer = d
	}

	timeout := cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().HandshakeTimeout
	}

	return &SMTPSender{
		dialer:      dialer,
		configured:  cfg.Username != "" && cfg.Password != "",
		fromEmail:   cfg.FromEmail,
		fromName:    cfg.FromName,
		timeout:     timeout,
		idleTimeout: cfg.IdleTimeout,
		now:         time.Now,
	}
}

func (s *SMTPSender) Name() string { return "smtp" }

// Init открывает соединение, если его еще нет
func (s *SMTPSender) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx)
}

// Send отправляет одно письмо. Ошибка отправки закрывает соединение,
// повтор не выполняется: следующий вызов откроет новое соединение.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) (*SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil && s.idleTimeout > 0 && s.now().Sub(s.lastUsed) > s.idleTimeout {
		s.dropLocked()
	}
	if err := s.connectLocked(ctx); err != nil {
		return nil, err
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(s.fromEmail))

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.fromEmail, s.fromName))
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", messageID)
	if msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		if msg.HTML != "" {
			m.AddAlternative("text/html", msg.HTML)
		}
	} else {
		m.SetBody("text/html", msg.HTML)
	}

	if err := gomail.Send(s.conn, m); err != nil {
		s.dropLocked()
		return nil, apperrors.EmailError(err, apperrors.CodeEmailDeliveryFailed, "Failed to send email")
	}

	s.lastUsed = s.now()
	return &SendResult{MessageID: messageID}, nil
}

// Close закрывает текущее соединение
func (s *SMTPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight != nil {
		go closeLate(s.inflight)
		s.inflight = nil
	}
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *SMTPSender) connectLocked(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}
	if !s.configured || s.fromEmail == "" {
		return apperrors.EmailError(nil, apperrors.CodeEmailNotConfigured, "SMTP credentials are not configured")
	}

	conn, err := s.dial(ctx)
	if err != nil {
		return apperrors.EmailError(err, apperrors.CodeEmailHandshakeFailed, "Failed to connect to SMTP server")
	}

	s.conn = conn
	s.lastUsed = s.now()
	logger.CtxInfo(ctx, "SMTP connection established")
	return nil
}

type dialResult struct {
	conn gomail.SendCloser
	err  error
}

// dial ограничивает handshake таймаутом. Вызывается под s.mu.
// Одновременно в работе не больше одного Dial.
func (s *SMTPSender) dial(ctx context.Context) (gomail.SendCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := s.inflight
	if done == nil {
		done = make(chan dialResult, 1)
		go func() {
			conn, err := s.dialer.Dial()
			done <- dialResult{conn: conn, err: err}
		}()
	}

	select {
	case r := <-done:
		s.inflight = nil
		return r.conn, r.err
	case <-ctx.Done():
		s.inflight = done
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrHandshakeTimeout, s.timeout)
		}
		return nil, ctx.Err()
	}
}

// closeLate закрывает соединение, которое пришло уже после Close
func closeLate(done <-chan dialResult) {
	if r := <-done; r.conn != nil {
		_ = r.conn.Close()
	}
}

func (s *SMTPSender) dropLocked() {
	if s.conn == nil {
		return
	}
	_ = s.conn.Close()
	s.conn = nil
}

func domainOf(address string) string {
	for i := len(address) - 1; i >= 0; i-- {
		if address[i] == '@' {
			return address[i+1:]
		}
	}
	return "localhost"
}
