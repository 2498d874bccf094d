package apperrors

/*
Предопределенные ошибки домена аутентификации.
Сообщения для случаев, которые нельзя различать снаружи (неверный логин,
любая проблема со ссылкой сброса), намеренно одинаковые.
*/

// --- Auth ---

// ErrInvalidCredentials - неверный email или пароль (один ответ на оба случая).
var ErrInvalidCredentials = New(
	KindAuthentication,
	CodeInvalidCredentials,
	"auth",
	"Invalid credentials",
)

// ErrLinkExpired - ссылка сброса пароля недействительна: просрочена, подделана,
// уже использована или заменена более новой.
var ErrLinkExpired = New(
	KindAuthentication,
	CodeLinkExpired,
	"auth",
	"Link has expired",
)

// ErrInvalidToken - неверный или просроченный токен сессии.
var ErrInvalidToken = New(
	KindAuthentication,
	CodeInvalidToken,
	"auth",
	"Invalid token",
)

// ErrUserNotAuthenticated - для обновления профиля, когда пользователь из токена исчез.
var ErrUserNotAuthenticated = New(
	KindAuthentication,
	CodeUnauthorized,
	"auth",
	"User not found",
)

// ErrInsufficientPermissions - роль не входит в список разрешенных.
var ErrInsufficientPermissions = New(
	KindAuthorization,
	CodeForbidden,
	"auth",
	"Insufficient permissions",
)

// --- Users ---

// ErrEmailAlreadyExists - email уже используется.
var ErrEmailAlreadyExists = New(
	KindConflict,
	CodeEmailAlreadyExists,
	"auth",
	"Email already exists",
)

// ErrPasswordMismatch - пароль и подтверждение не совпадают.
var ErrPasswordMismatch = New(
	KindConflict,
	CodePasswordMismatch,
	"auth",
	"Passwords do not match",
)

// ErrUserNotFound - пользователь не найден.
var ErrUserNotFound = New(
	KindNotFound,
	CodeUserNotFound,
	"user",
	"User not found",
)

// --- Validation ---

// ErrWeakPassword - пароль не проходит политику. Причины кладутся в Details.
var ErrWeakPassword = New(
	KindValidation,
	CodeWeakPassword,
	"validation",
	"Password is too weak",
)

// ErrInvalidUserRole - роль не из списка поддерживаемых.
var ErrInvalidUserRole = New(
	KindValidation,
	CodeInvalidUserRole,
	"validation",
	"Invalid user role",
)
