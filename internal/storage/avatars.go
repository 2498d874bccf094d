package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// AvatarDir - подкаталог аватаров внутри хранилища
const AvatarDir = "avatars"

var allowedAvatarTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// AvatarStore сохраняет загруженные аватары и возвращает имя файла,
// которое кладется в профиль пользователя
type AvatarStore struct {
	storage Storage
	maxSize int64
}

func NewAvatarStore(s Storage, maxSize int64) *AvatarStore {
	return &AvatarStore{storage: s, maxSize: maxSize}
}

// Save проверяет размер и тип файла и сохраняет его под уникальным именем
func (a *AvatarStore) Save(ctx context.Context, header *multipart.FileHeader) (string, error) {
	if a.maxSize > 0 && header.Size > a.maxSize {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, header.Size, a.maxSize)
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return "", fmt.Errorf("failed to detect file type: %w", err)
	}
	if !mimetype.EqualsAny(mtype.String(), allowedAvatarTypes...) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}

	filename := avatarFilename(header.Filename)
	if err := a.storage.Save(ctx, AvatarPath(filename), file); err != nil {
		return "", err
	}
	return filename, nil
}

// Remove удаляет сохраненный аватар, если профиль так и не сослался на него
func (a *AvatarStore) Remove(ctx context.Context, filename string) error {
	return a.storage.Delete(ctx, AvatarPath(filename))
}

// AvatarPath - путь файла аватара внутри хранилища
func AvatarPath(filename string) string {
	return AvatarDir + "/" + filename
}

func avatarFilename(original string) string {
	name := filepath.Base(original)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." || name == "_" {
		name = "avatar"
	}
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixNano(), uuid.NewString()[:8], name)
}
