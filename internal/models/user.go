package models

type User struct {
	BaseModel
	Email        string   `gorm:"uniqueIndex;not null"`
	PasswordHash string   `gorm:"not null"`
	Phone        *string  `gorm:"type:varchar(32)"`
	Role         UserRole `gorm:"type:varchar(20);not null"`
	Avatar       *string

	// Хеш последнего выданного токена сброса пароля. nil - сброс не запрошен.
	ResetPasswordToken *string `gorm:"column:reset_password_token"`
}

// HasPendingReset - есть ли неиспользованный запрос на сброс пароля
func (u *User) HasPendingReset() bool {
	return u.ResetPasswordToken != nil && *u.ResetPasswordToken != ""
}
