package apperrors

// ErrorCode - тип для кодов ошибок
type ErrorCode string

// Kind - класс ошибки. От него зависит HTTP-статус и то, как ошибку
// обрабатывают вызывающие (повтор, логирование, сокрытие от клиента).
type Kind string

const (
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindNotFound       Kind = "not_found"
	KindEmail          Kind = "email"
	KindInternal       Kind = "internal"
)

const (
	// Системные
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError ErrorCode = "DATABASE_ERROR"

	// Валидация
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeWeakPassword     ErrorCode = "WEAK_PASSWORD"
	CodeInvalidUserRole  ErrorCode = "INVALID_USER_ROLE"

	// Конфликты
	CodeConflict           ErrorCode = "CONFLICT"
	CodeEmailAlreadyExists ErrorCode = "EMAIL_ALREADY_EXISTS"
	CodePasswordMismatch   ErrorCode = "PASSWORD_MISMATCH"

	// Аутентификация и авторизация
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	CodeLinkExpired        ErrorCode = "LINK_EXPIRED"
	CodeForbidden          ErrorCode = "FORBIDDEN"

	// Ресурсы
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUserNotFound ErrorCode = "USER_NOT_FOUND"

	// Почта
	CodeEmailNotConfigured   ErrorCode = "EMAIL_NOT_CONFIGURED"
	CodeEmailHandshakeFailed ErrorCode = "EMAIL_HANDSHAKE_FAILED"
	CodeEmailDeliveryFailed  ErrorCode = "EMAIL_DELIVERY_FAILED"
)
