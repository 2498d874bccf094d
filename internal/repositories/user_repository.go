package repositories

import (
	"context"
	"errors"
	"time"

	"time2care_backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrResetTokenMismatch - сохраненный хеш токена сброса изменился или был очищен
	// между чтением и записью (конкурентный запрос или повторное использование).
	ErrResetTokenMismatch = errors.New("reset token hash mismatch")
)

// pgUniqueViolation - SQLSTATE нарушения уникального индекса в PostgreSQL
const pgUniqueViolation = "23505"

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error

	// UpdateProfile применяет только заданные поля и возвращает обновленную запись
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	// SetResetToken перезаписывает хеш ожидающего токена сброса (последняя запись побеждает)
	SetResetToken(ctx context.Context, userID, tokenHash string) error
	// ConsumeResetToken атомарно меняет пароль и очищает хеш токена,
	// только если сохраненный хеш все еще равен expectedHash.
	ConsumeResetToken(ctx context.Context, userID, expectedHash, passwordHash string) error
}

// ProfileUpdate - частичное обновление профиля; nil означает "не трогать"
type ProfileUpdate struct {
	Email  *string
	Phone  *string
	Avatar *string
}

func (u ProfileUpdate) isEmpty() bool {
	return u.Email == nil && u.Phone == nil && u.Avatar == nil
}

type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *models.User) error {
	db := r.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUserAlreadyExists
	}

	// Проверка выше не спасает от гонки двух регистраций - уникальный индекс спасает.
	if err := db.Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UserRepositoryImpl) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.User, error) {
	var updated models.User

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&updated, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if update.isEmpty() {
			return nil
		}

		fields := map[string]interface{}{"updated_at": time.Now()}
		if update.Email != nil && *update.Email != updated.Email {
			var count int64
			if err := tx.Model(&models.User{}).
				Where("email = ? AND id <> ?", *update.Email, userID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrUserAlreadyExists
			}
			fields["email"] = *update.Email
		}
		if update.Phone != nil {
			fields["phone"] = *update.Phone
		}
		if update.Avatar != nil {
			fields["avatar"] = *update.Avatar
		}

		if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(fields).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrUserAlreadyExists
			}
			return err
		}
		return tx.First(&updated, "id = ?", userID).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *UserRepositoryImpl) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"password_hash": passwordHash,
		"updated_at":    time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) SetResetToken(ctx context.Context, userID, tokenHash string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"reset_password_token": tokenHash,
		"updated_at":           time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) ConsumeResetToken(ctx context.Context, userID, expectedHash, passwordHash string) error {
	// Одно условное UPDATE: параллельный SetResetToken либо успеет до него
	// (и тогда условие не выполнится), либо после (и перезапишет уже очищенное поле).
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND reset_password_token = ?", userID, expectedHash).
		Updates(map[string]interface{}{
			"password_hash":        passwordHash,
			"reset_password_token": gorm.Expr("NULL"),
			"updated_at":           time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrResetTokenMismatch
	}
	return nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
