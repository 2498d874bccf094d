package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCompare(t *testing.T) {
	hasher, err := NewHasher(bcrypt.MinCost, 2)
	require.NoError(t, err)
	ctx := context.Background()

	hash, err := hasher.Hash(ctx, "Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)

	ok, err := hasher.Compare(ctx, hash, "Secret123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Compare(ctx, hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_DefaultCost(t *testing.T) {
	hasher, err := NewHasher(DefaultPasswordCost, 1)
	require.NoError(t, err)

	hash, err := hasher.Hash(context.Background(), "Secret123")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 10, cost)
}

func TestHasher_InvalidCost(t *testing.T) {
	_, err := NewHasher(100, 1)
	assert.Error(t, err)
}

func TestHasher_EmptyPassword(t *testing.T) {
	hasher, err := NewHasher(bcrypt.MinCost, 1)
	require.NoError(t, err)

	_, err = hasher.Hash(context.Background(), "")
	assert.Error(t, err)
}

func TestHasher_CanceledContext(t *testing.T) {
	hasher, err := NewHasher(bcrypt.MinCost, 1)
	require.NoError(t, err)

	// Занимаем единственный слот
	require.NoError(t, hasher.slots.Acquire(context.Background(), 1))
	defer hasher.slots.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = hasher.Hash(ctx, "Secret123")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"valid", "Secret123", true},
		{"too short", "Se1", false},
		{"no upper", "secret123", false},
		{"no lower", "SECRET123", false},
		{"no digit", "SecretPass", false},
		{"unicode letters", "Пароль123", true},
		{"over bcrypt limit", "Aa1" + strings.Repeat("x", 80), false},
		{"exactly bcrypt limit", "Aa1" + strings.Repeat("x", 69), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidatePassword(tt.password)
			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				assert.NotEmpty(t, result.Reasons)
			}
		})
	}
}

func TestValidatePassword_CollectsAllReasons(t *testing.T) {
	result := ValidatePassword("abc")

	assert.False(t, result.Valid)
	assert.Len(t, result.Reasons, 3)
	assert.True(t, strings.Contains(strings.Join(result.Reasons, " "), "8 characters"))
}
