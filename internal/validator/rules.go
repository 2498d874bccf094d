package validator

import (
	"fmt"

	"time2care_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// customRules - теги, которые DTO используют помимо встроенных.
var customRules = map[string]validator.Func{
	"is-user-role": validateUserRole,
}

func registerCustomRules(v *validator.Validate) {
	for tag, fn := range customRules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Ошибка здесь возможна только при опечатке в имени тега
			panic(fmt.Sprintf("validator: register %q: %v", tag, err))
		}
	}
}

// Пустую роль пропускаем: обязательность проверяет 'required'.
func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.UserRole(value).IsValid()
}

func roleNames() []string {
	names := make([]string, 0, len(models.KnownRoles))
	for _, r := range models.KnownRoles {
		names = append(names, string(r))
	}
	return names
}
