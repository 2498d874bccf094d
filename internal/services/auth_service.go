package services

import (
	"context"
	"errors"
	"fmt"

	"time2care_backend/internal/auth"
	"time2care_backend/internal/logger"
	"time2care_backend/internal/models"
	"time2care_backend/internal/repositories"
	"time2care_backend/internal/services/dto"
	"time2care_backend/pkg/apperrors"
)

// minRegisterPasswordLength - минимальная длина пароля при регистрации.
// Полная политика применяется при смене и сбросе пароля.
const minRegisterPasswordLength = 6

type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	GetMe(ctx context.Context, userID string) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest, avatar *string) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, userID, password, confirmation string) (*dto.MessageResponse, error)
}

type AuthServiceImpl struct {
	userRepo repositories.UserRepository
	hasher   *auth.Hasher
	tokens   *auth.TokenIssuer
}

func NewAuthService(
	userRepo repositories.UserRepository,
	hasher *auth.Hasher,
	tokens *auth.TokenIssuer,
) AuthService {
	return &AuthServiceImpl{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// Register - регистрация нового пользователя
func (s *AuthServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if len([]rune(req.Password)) < minRegisterPasswordLength {
		return nil, apperrors.ErrWeakPassword.WithDetails(map[string]string{
			"password": "Must be at least 6 characters long",
		})
	}
	if len(req.Password) > auth.MaxPasswordBytes {
		return nil, apperrors.ErrWeakPassword.WithDetails(map[string]string{
			"password": fmt.Sprintf("Must be at most %d bytes long", auth.MaxPasswordBytes),
		})
	}
	if !req.Role.IsValid() {
		return nil, apperrors.ErrInvalidUserRole
	}

	hashed, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hashed,
		Phone:        nonEmpty(req.Phone),
		Role:         req.Role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.DatabaseError(err)
	}

	logger.CtxInfo(ctx, "User registered", "user_id", user.ID, "role", user.Role)
	return dto.NewUserResponse(user), nil
}

// Login - аутентификация пользователя
func (s *AuthServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			// Время ответа не должно выдавать отсутствие аккаунта
			s.hasher.CompareDummy(ctx, req.Password)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.DatabaseError(err)
	}

	ok, err := s.hasher.Compare(ctx, user.PasswordHash, req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if !ok {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, claims, err := s.tokens.IssueSession(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.LoginResponse{
		Token:  token,
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// GetMe - текущий пользователь
func (s *AuthServiceImpl) GetMe(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}
	return dto.NewUserResponseWithAvatar(user), nil
}

// UpdateProfile - частичное обновление email/телефона/аватара.
// Старый файл аватара не удаляется.
func (s *AuthServiceImpl) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest, avatar *string) (*dto.UserResponse, error) {
	update := repositories.ProfileUpdate{Avatar: nonEmpty(avatar)}
	if req != nil {
		update.Email = nonEmptyString(req.Email)
		update.Phone = nonEmptyString(req.Phone)
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, update)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, apperrors.ErrUserNotAuthenticated
		case errors.Is(err, repositories.ErrUserAlreadyExists):
			return nil, apperrors.ErrEmailAlreadyExists
		default:
			return nil, apperrors.DatabaseError(err)
		}
	}

	return dto.NewUserResponseWithAvatar(user), nil
}

// ChangePassword - смена пароля авторизованным пользователем.
// Сначала политика и совпадение, потом хранилище.
func (s *AuthServiceImpl) ChangePassword(ctx context.Context, userID, password, confirmation string) (*dto.MessageResponse, error) {
	if err := checkNewPassword(password, confirmation); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hashed); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}

	logger.CtxInfo(ctx, "Password changed", "user_id", userID)
	return &dto.MessageResponse{Message: MessagePasswordChanged}, nil
}

// checkNewPassword: политика (Validation), затем совпадение (Conflict)
func checkNewPassword(password, confirmation string) error {
	if policy := auth.ValidatePassword(password); !policy.Valid {
		return apperrors.ErrWeakPassword.WithDetails(policy.Reasons)
	}
	if password != confirmation {
		return apperrors.ErrPasswordMismatch
	}
	return nil
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func nonEmptyString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
