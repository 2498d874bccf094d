package auth

import (
	"context"
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultPasswordCost - work factor bcrypt для паролей пользователей.
const DefaultPasswordCost = 10

// MinPasswordLength - минимальная длина пароля по политике.
const MinPasswordLength = 8

// MaxPasswordBytes - bcrypt не принимает пароли длиннее 72 байт.
const MaxPasswordBytes = 72

// Hasher хеширует и проверяет пароли через bcrypt. Число одновременных
// вычислений ограничено, чтобы CPU-тяжелые хеши не забивали все ядра
// и не задерживали остальные запросы.
type Hasher struct {
	cost  int
	slots *semaphore.Weighted

	// dummyHash используется, когда пользователь не найден: сравнение
	// занимает столько же времени, сколько и настоящее.
	dummyHash []byte
}

// NewHasher создает Hasher. workers <= 0 означает один слот.
func NewHasher(cost, workers int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("invalid bcrypt cost: %d", cost)
	}
	if workers <= 0 {
		workers = 1
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("time2care-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &Hasher{
		cost:      cost,
		slots:     semaphore.NewWeighted(int64(workers)),
		dummyHash: dummy,
	}, nil
}

// Hash создает bcrypt хеш пароля
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.slots.Release(1)

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Compare проверяет пароль против хеша
func (h *Hasher) Compare(ctx context.Context, hash, password string) (bool, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.slots.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// CompareDummy тратит на сравнение столько же, сколько Compare, и всегда возвращает false.
func (h *Hasher) CompareDummy(ctx context.Context, password string) {
	_, _ = h.Compare(ctx, string(h.dummyHash), password)
}

// PolicyResult - результат проверки пароля политикой
type PolicyResult struct {
	Valid   bool     `json:"valid"`
	Reasons []string `json:"reasons,omitempty"`
}

// ValidatePassword проверяет сложность пароля: длина, буквы в обоих регистрах, цифра.
func ValidatePassword(password string) PolicyResult {
	var reasons []string

	if len([]rune(password)) < MinPasswordLength {
		reasons = append(reasons, fmt.Sprintf("password must be at least %d characters long", MinPasswordLength))
	}
	if len(password) > MaxPasswordBytes {
		reasons = append(reasons, fmt.Sprintf("password must be at most %d bytes long", MaxPasswordBytes))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		reasons = append(reasons, "password must contain an uppercase letter")
	}
	if !hasLower {
		reasons = append(reasons, "password must contain a lowercase letter")
	}
	if !hasDigit {
		reasons = append(reasons, "password must contain a digit")
	}

	return PolicyResult{Valid: len(reasons) == 0, Reasons: reasons}
}
