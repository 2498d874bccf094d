package auth

import (
	"time2care_backend/internal/models"
	"time2care_backend/pkg/apperrors"
)

// RoleSet - множество ролей, допущенных к операции
type RoleSet map[models.UserRole]struct{}

// Roles собирает RoleSet из списка
func Roles(roles ...models.UserRole) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Has проверяет принадлежность роли множеству
func (s RoleSet) Has(role models.UserRole) bool {
	_, ok := s[role]
	return ok
}

// Authorize возвращает nil, если роль из claims входит в required, иначе ошибку Authorization.
// Чистая функция: ни хранилища, ни проверки подписи.
func Authorize(required RoleSet, claims *SessionClaims) error {
	if claims == nil || !required.Has(claims.Role) {
		return apperrors.ErrInsufficientPermissions
	}
	return nil
}
