package auth

import (
	"errors"
	"fmt"
	"time"

	"time2care_backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ResetTokenTTL - время жизни ссылки сброса пароля. Не настраивается.
const ResetTokenTTL = 15 * time.Minute

const (
	purposeSession       = "session"
	purposePasswordReset = "password_reset"
)

// SessionClaims - содержимое токена сессии
type SessionClaims struct {
	UserID  string          `json:"userId"`
	Email   string          `json:"email"`
	Role    models.UserRole `json:"role"`
	Purpose string          `json:"purpose"`
	jwt.RegisteredClaims
}

// ResetClaims - содержимое токена сброса пароля. jti делает каждый токен уникальной строкой.
type ResetClaims struct {
	UserID  string `json:"userId"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenErrorReason - почему токен не прошел проверку
type TokenErrorReason string

const (
	ReasonMalformed        TokenErrorReason = "malformed"
	ReasonSignatureInvalid TokenErrorReason = "signature_invalid"
	ReasonExpired          TokenErrorReason = "expired"
	ReasonInvalid          TokenErrorReason = "invalid"
)

// TokenError - ошибка проверки токена с причиной. Вызывающие сами решают,
// показывать ли причину клиенту.
type TokenError struct {
	Reason TokenErrorReason
	Err    error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token %s: %v", e.Reason, e.Err)
	}
	return "token " + string(e.Reason)
}

func (e *TokenError) Unwrap() error { return e.Err }

// TokenIssuer подписывает и проверяет токены (HS256). Собственного состояния не имеет.
type TokenIssuer struct {
	secret     []byte
	sessionTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer создает TokenIssuer. sessionTTL == 0 - токены сессии без exp.
func NewTokenIssuer(secret string, sessionTTL time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("signing secret is empty")
	}
	return &TokenIssuer{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		now:        time.Now,
	}, nil
}

// WithClock подменяет источник времени (для тестов)
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	i.now = now
	return i
}

// IssueSession подписывает токен сессии
func (i *TokenIssuer) IssueSession(userID, email string, role models.UserRole) (string, *SessionClaims, error) {
	now := i.now()
	claims := &SessionClaims{
		UserID:  userID,
		Email:   email,
		Role:    role,
		Purpose: purposeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if i.sessionTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.sessionTTL))
	}

	token, err := i.sign(claims)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// IssueResetToken подписывает токен сброса пароля с TTL 15 минут
func (i *TokenIssuer) IssueResetToken(userID string) (string, error) {
	now := i.now()
	claims := &ResetClaims{
		UserID:  userID,
		Purpose: purposePasswordReset,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ResetTokenTTL)),
		},
	}
	return i.sign(claims)
}

// VerifySession проверяет токен сессии
func (i *TokenIssuer) VerifySession(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := i.parse(token, claims); err != nil {
		return nil, err
	}
	if claims.Purpose != purposeSession || claims.UserID == "" {
		return nil, &TokenError{Reason: ReasonInvalid, Err: errors.New("not a session token")}
	}
	return claims, nil
}

// VerifyReset проверяет токен сброса пароля
func (i *TokenIssuer) VerifyReset(token string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := i.parse(token, claims); err != nil {
		return nil, err
	}
	if claims.Purpose != purposePasswordReset || claims.UserID == "" {
		return nil, &TokenError{Reason: ReasonInvalid, Err: errors.New("not a password reset token")}
	}
	return claims, nil
}

func (i *TokenIssuer) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (i *TokenIssuer) parse(token string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return &TokenError{Reason: classify(err), Err: err}
	}
	if !parsed.Valid {
		return &TokenError{Reason: ReasonInvalid}
	}
	return nil
}

func classify(err error) TokenErrorReason {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ReasonMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	default:
		return ReasonInvalid
	}
}
