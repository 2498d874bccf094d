package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashResetToken возвращает необратимый хеш точной строки токена сброса.
// bcrypt здесь не подходит: он учитывает только первые 72 байта, а у двух
// токенов одного пользователя эти байты совпадают.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ResetTokenMatches сравнивает предъявленный токен с сохраненным хешем за постоянное время
func ResetTokenMatches(token, storedHash string) bool {
	computed := HashResetToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
