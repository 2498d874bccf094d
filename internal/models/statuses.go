package models

type UserRole string

const (
	UserRoleUser    UserRole = "user"
	UserRoleCompany UserRole = "company"
)

// KnownRoles - роли, которые можно выбрать при регистрации.
var KnownRoles = []UserRole{UserRoleUser, UserRoleCompany}

// IsValid проверяет, что роль входит в список поддерживаемых
func (r UserRole) IsValid() bool {
	for _, known := range KnownRoles {
		if r == known {
			return true
		}
	}
	return false
}
