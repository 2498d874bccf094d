package services_test

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"time2care_backend/internal/auth"
	"time2care_backend/internal/models"
	"time2care_backend/internal/repositories"
	"time2care_backend/internal/services"
	"time2care_backend/internal/services/dto"
	"time2care_backend/internal/testhelpers"
	"time2care_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type fixture struct {
	db     *gorm.DB
	repo   repositories.UserRepository
	auth   services.AuthService
	reset  services.PasswordResetService
	mailer *testhelpers.FakeMailer
	clock  *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testhelpers.NewTestDB(t)
	repo := repositories.NewUserRepository(db)
	hasher := testhelpers.NewTestHasher(t)
	clk := &clock{now: time.Now()}
	tokens := testhelpers.NewTestTokenIssuer(t).WithClock(clk.Now)
	mailer := &testhelpers.FakeMailer{}
	reset := services.NewPasswordResetService(repo, hasher, tokens, mailer, nil, "")
	t.Cleanup(reset.Wait)

	return &fixture{
		db:     db,
		repo:   repo,
		auth:   services.NewAuthService(repo, hasher, tokens),
		reset:  reset,
		mailer: mailer,
		clock:  clk,
	}
}

func (f *fixture) register(t *testing.T, email, password string, role models.UserRole) *dto.UserResponse {
	t.Helper()
	user, err := f.auth.Register(context.Background(), &dto.RegisterRequest{
		Email:    email,
		Password: password,
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

var tokenPattern = regexp.MustCompile(`token=([A-Za-z0-9._\-]+)`)

// lastResetToken достает токен из deep link последнего письма
func (f *fixture) lastResetToken(t *testing.T) string {
	t.Helper()
	f.reset.Wait()
	sent, ok := f.mailer.Last()
	require.True(t, ok, "письмо должно быть отправлено")
	match := tokenPattern.FindStringSubmatch(sent.Text)
	require.Len(t, match, 2, "в письме нет ссылки: %s", sent.Text)
	return match[1]
}

func assertKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperrors.KindOf(err), "ошибка: %v", err)
}

// ============================================================================
// Register / Login
// ============================================================================

func TestRegister_Success(t *testing.T) {
	f := newFixture(t)
	phone := "+77001234567"

	user, err := f.auth.Register(context.Background(), &dto.RegisterRequest{
		Email:    "a@x.com",
		Password: "Secret123",
		Phone:    &phone,
		Role:     models.UserRoleUser,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, models.UserRoleUser, user.Role)
	require.NotNil(t, user.Phone)
	assert.Equal(t, phone, *user.Phone)

	stored, err := f.repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	original := f.register(t, "a@x.com", "Secret123", models.UserRoleUser)
	before, err := f.repo.FindByID(context.Background(), original.ID)
	require.NoError(t, err)

	_, err = f.auth.Register(context.Background(), &dto.RegisterRequest{
		Email:    "a@x.com",
		Password: "Other4567",
		Role:     models.UserRoleCompany,
	})

	assertKind(t, err, apperrors.KindConflict)
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	after, err := f.repo.FindByID(context.Background(), original.ID)
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	assert.Equal(t, models.UserRoleUser, after.Role)
}

func TestRegister_InvalidInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Register(context.Background(), &dto.RegisterRequest{Email: "a@x.com", Password: "12345", Role: models.UserRoleUser})
	assertKind(t, err, apperrors.KindValidation)

	_, err = f.auth.Register(context.Background(), &dto.RegisterRequest{Email: "a@x.com", Password: "Secret123", Role: "admin"})
	assertKind(t, err, apperrors.KindValidation)
	assert.ErrorIs(t, err, apperrors.ErrInvalidUserRole)
}

func TestLogin_ClaimsMatchStoredUser(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "a@x.com", "Secret123", models.UserRoleUser)

	resp, err := f.auth.Login(context.Background(), &dto.LoginRequest{Email: "a@x.com", Password: "Secret123"})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.UserID)
	assert.Equal(t, "a@x.com", resp.Email)
	assert.Equal(t, models.UserRoleUser, resp.Role)
}

func TestLogin_UniformFailure(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com", "Secret123", models.UserRoleUser)

	_, wrongPassword := f.auth.Login(context.Background(), &dto.LoginRequest{Email: "a@x.com", Password: "wrong"})
	_, unknownEmail := f.auth.Login(context.Background(), &dto.LoginRequest{Email: "nobody@x.com", Password: "anything"})

	assertKind(t, wrongPassword, apperrors.KindAuthentication)
	assertKind(t, unknownEmail, apperrors.KindAuthentication)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	a, _ := apperrors.AsAppError(wrongPassword)
	b, _ := apperrors.AsAppError(unknownEmail)
	assert.Equal(t, a.Message, b.Message)
	assert.Equal(t, "Invalid credentials", a.Message)
}

// ============================================================================
// GetMe / UpdateProfile
// ============================================================================

func TestGetMe(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "a@x.com", "Secret123", models.UserRoleCompany)

	me, err := f.auth.GetMe(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)
	assert.Equal(t, models.UserRoleCompany, me.Role)
	assert.Nil(t, me.Avatar)

	_, err = f.auth.GetMe(context.Background(), "missing-id")
	assertKind(t, err, apperrors.KindNotFound)
}

func TestUpdateProfile_MergesOnlySuppliedFields(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "a@x.com", "Secret123", models.UserRoleUser)
	ctx := context.Background()

	updated, err := f.auth.UpdateProfile(ctx, user.ID, &dto.UpdateProfileRequest{Phone: "+7700"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", updated.Email, "email не передавали - он не должен меняться")
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "+7700", *updated.Phone)

	avatar := "1700000000-abcd1234-me.png"
	updated, err = f.auth.UpdateProfile(ctx, user.ID, &dto.UpdateProfileRequest{}, &avatar)
	require.NoError(t, err)
	require.NotNil(t, updated.Avatar)
	assert.Equal(t, avatar, *updated.Avatar)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "+7700", *updated.Phone, "телефон не должен обнуляться")

	updated, err = f.auth.UpdateProfile(ctx, user.ID, &dto.UpdateProfileRequest{Email: "b@x.com"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", updated.Email)
	assert.Equal(t, avatar, *updated.Avatar)
}

func TestUpdateProfile_Errors(t *testing.T) {
	f := newFixture(t)
	first := f.register(t, "a@x.com", "Secret123", models.UserRoleUser)
	f.register(t, "b@x.com", "Secret123", models.UserRoleUser)
	ctx := context.Background()

	_, err := f.auth.UpdateProfile(ctx, "missing-id", &dto.UpdateProfileRequest{Phone: "1"}, nil)
	assertKind(t, err, apperrors.KindAuthentication)

	_, err = f.auth.UpdateProfile(ctx, first.ID, &dto.UpdateProfileRequest{Email: "b@x.com"}, nil)
	assertKind(t, err, apperrors.KindConflict)
}

// ============================================================================
// ChangePassword
// ============================================================================

func TestChangePassword_ValidationOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Политика проверяется до обращения к хранилищу
	_, err := f.auth.ChangePassword(ctx, "missing-id", "weak", "weak")
	assertKind(t, err, apperrors.KindValidation)

	_, err = f.auth.ChangePassword(ctx, "missing-id", "Secret123", "Secret124")
	assertKind(t, err, apperrors.KindConflict)
	assert.ErrorIs(t, err, apperrors.ErrPasswordMismatch)

	_, err = f.auth.ChangePassword(ctx, "missing-id", "Secret123", "Secret123")
	assertKind(t, err, apperrors.KindNotFound)
}

func TestChangePassword_Success(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "a@x.com", "Secret123", models.UserRoleUser)
	ctx := context.Background()

	_, err := f.reset.RequestReset(ctx, "a@x.com")
	require.NoError(t, err)

	resp, err := f.auth.ChangePassword(ctx, user.ID, "NewSecret456", "NewSecret456")
	require.NoError(t, err)
	assert.Equal(t, services.MessagePasswordChanged, resp.Message)

	_, err = f.auth.Login(ctx, &dto.LoginRequest{Email: "a@x.com", Password: "NewSecret456"})
	assert.NoError(t, err)

	stored, err := f.repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasPendingReset(), "смена пароля не трогает состояние сброса")
}

// ============================================================================
// Password reset
// ============================================================================

func TestRequestReset_SameResponseForExistingAndMissing(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com", "Secret123", models.UserRoleUser)
	ctx := context.Background()

	existing, err := f.reset.RequestReset(ctx, "a@x.com")
	require.NoError(t, err)
	missing, err := f.reset.RequestReset(ctx, "nobody@x.com")
	require.NoError(t, err)

	assert.Equal(t, existing, missing)
	assert.Equal(t, services.MessageResetRequested, existing.Message)
	f.reset.Wait()
	assert.Equal(t, 1, f.mailer.Count(), "для несуществующего email письмо не отправляется")
}

func TestRequestReset_StoresHashAndSendsDeepLink(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "a@x.com", "Secret123", models.UserRoleUser)
	ctx := context.Background()

	_, err := f.reset.RequestReset(ctx, "a@x.com")
	require.NoError(t, err)
	f.reset.Wait()

	sent, ok := f.mailer.Last()
	require.True(t, ok)
	assert.Equal(t, "a@x.com", sent.To)
	assert.Contains(t, sent.Text, "time2care://reset-password?token=")
	assert.Contains(t, sent.HTML, "time2care://reset-password?token=")

	token := f.lastResetToken(t)
	stored, err := f.repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, stored.HasPendingReset())
	assert.NotEqual(t, token, *stored.ResetPasswordToken, "хранится хеш, а не сам токен")
	assert.Equal(t, auth.HashResetToken(token), *stored.ResetPasswordToken)
}

func TestRequestReset_EmailFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com", "Secret123", models.UserRoleUser)
	f.mailer.Err = testhelpers.DeliveryFailure()

	resp, err := f.reset.RequestReset(context.Background(), "a@x.com")

	require.NoError(t, err)
	assert.Equal(t, services.MessageResetRequested, resp.Message)
	f.reset.Wait()
	assert.Zero(t, f.mailer.Count())
}

func TestRequestReset_SlowMailerDoesNotDelayResponse(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com", "Secret123", models.UserRoleUser)
	f.mailer.Delay = 500 * time.Millisecond

	// Запрос отменяется сразу после ответа, письмо все равно должно уйти
	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	resp, err := f.reset.RequestReset(ctx, "a@x.com")
	elapsed := time.Since(start)
	cancel()

	require.NoError(t, err)
	assert.Equal(t, services.MessageResetRequested, resp.Message)
	assert.Less(t, elapsed, f.mailer.Delay/2, "ответ не ждет доставку письма")

	f.reset.Wait()
	assert.Equal(t, 1, f.mailer.Count())
}

func TestResetWithToken_LastRequestWins(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com", "Secret123", models.UserRoleUser)
	ctx := context.Background()

	_, err := f.reset.RequestReset(ctx, "a@x.com")
	require.NoError(t, err)
	firstToken := f.lastResetToken(t)

	_, err = f.reset.RequestReset(ctx, "a@x.com")
	require.NoError(t, err)
	secondToken := f.lastResetToken(t)
	require.NotEqual(t, firstToken, secondToken)

	_, err = f.reset.ResetWithToken(ctx, firstToken, "NewSecret456", "NewSecret456")
	assertKind(t, err, apperrors.KindAuthentication)
	assert.ErrorIs(t, err, apperrors.ErrLinkExpired)

	resp, err := f.reset.ResetWithToken(ctx, secondToken, "NewSecret456", "NewSecret456")
	require.NoError(t, err)
	assert.Equal(t, services.MessagePasswordChanged, resp.Message)

	_, err = f.auth.Login(ctx, &dto.LoginRequest{Email: "a@x.com", Password: "NewSecret456"})
	assert.NoError(t, err)
	_, err = f.auth.Login(ctx, &dto.LoginRequest{Email: "a@x.com", Password: "Secret123"})
	assert.Error(t, err)
}

func TestResetWithToken_SingleUse(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "a@x.com", "Secret123", models.UserRoleUser)
	ctx := context.Background()

	_, err := f.reset.RequestReset(ctx, "a@x.com")
	require.NoError(t, err)
	token := f.lastResetToken(t)

	_, err = f.reset.ResetWithToken(ctx, token, "NewSecret456", "NewSecret456")
	require.NoError(t, err)

	stored, err := f.repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasPendingReset(), "хеш очищается после использования")

	_, err = f.reset.ResetWithToken(ctx, token, "Another789", "Another789")
	assert.ErrorIs(t, err, apperrors.ErrLinkExpired)
}

func TestResetWithToken_ExpiredTamperedAndMalformedLookTheSame(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com", "Secret123", models.UserRoleUser)
	ctx := context.Background()

	_, err := f.reset.RequestReset(ctx, "a@x.com")
	require.NoError(t, err)
	token := f.lastResetToken(t)

	tampered := token[:len(token)-2] + "xx"
	_, tamperedErr := f.reset.ResetWithToken(ctx, tampered, "NewSecret456", "NewSecret456")
	_, malformedErr := f.reset.ResetWithToken(ctx, "not-a-token", "NewSecret456", "NewSecret456")

	f.clock.now = f.clock.now.Add(auth.ResetTokenTTL + time.Minute)
	_, expiredErr := f.reset.ResetWithToken(ctx, token, "NewSecret456", "NewSecret456")

	for _, err := range []error{tamperedErr, malformedErr, expiredErr} {
		assertKind(t, err, apperrors.KindAuthentication)
		assert.Equal(t, expiredErr.Error(), err.Error())
	}
	a, _ := apperrors.AsAppError(expiredErr)
	assert.Equal(t, "Link has expired", a.Message)
}

func TestResetWithToken_InputCheckedBeforeToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reset.ResetWithToken(ctx, "invalid-token", "weak", "weak")
	assertKind(t, err, apperrors.KindValidation)

	_, err = f.reset.ResetWithToken(ctx, "invalid-token", "NewSecret456", "NewSecret457")
	assertKind(t, err, apperrors.KindConflict)
}

func TestResetWithToken_UserDeleted(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "a@x.com", "Secret123", models.UserRoleUser)
	ctx := context.Background()

	_, err := f.reset.RequestReset(ctx, "a@x.com")
	require.NoError(t, err)
	token := f.lastResetToken(t)

	require.NoError(t, f.db.Delete(&models.User{}, "id = ?", user.ID).Error)

	_, err = f.reset.ResetWithToken(ctx, token, "NewSecret456", "NewSecret456")
	assert.ErrorIs(t, err, apperrors.ErrLinkExpired)
}

func TestResetWithToken_ConcurrentConsumptionSucceedsOnce(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com", "Secret123", models.UserRoleUser)
	ctx := context.Background()

	_, err := f.reset.RequestReset(ctx, "a@x.com")
	require.NoError(t, err)
	token := f.lastResetToken(t)

	const attempts = 5
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			_, err := f.reset.ResetWithToken(ctx, token, "NewSecret456", "NewSecret456")
			results <- err
		}()
	}

	var succeeded int
	for i := 0; i < attempts; i++ {
		if err := <-results; err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, apperrors.ErrLinkExpired)
		}
	}
	assert.Equal(t, 1, succeeded)
}

// ============================================================================
// bcrypt limit
// ============================================================================

// bcrypt принимает не больше 72 байт: длинный пароль - ошибка ввода, а не 500
var tooLongPassword = "Aa1" + strings.Repeat("x", 80)

func TestTooLongPassword_IsValidationError(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "a@x.com", "Secret123", models.UserRoleUser)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, &dto.RegisterRequest{
		Email:    "b@x.com",
		Password: tooLongPassword,
		Role:     models.UserRoleUser,
	})
	assertKind(t, err, apperrors.KindValidation)

	_, err = f.auth.ChangePassword(ctx, user.ID, tooLongPassword, tooLongPassword)
	assertKind(t, err, apperrors.KindValidation)

	_, err = f.reset.RequestReset(ctx, "a@x.com")
	require.NoError(t, err)
	token := f.lastResetToken(t)

	_, err = f.reset.ResetWithToken(ctx, token, tooLongPassword, tooLongPassword)
	assertKind(t, err, apperrors.KindValidation)

	stored, err := f.repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasPendingReset(), "отклоненный ввод не расходует ссылку")
}
