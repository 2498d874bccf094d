package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrInvalidPath - путь выходит за пределы хранилища
	ErrInvalidPath = errors.New("invalid storage path")
	// ErrFileTooLarge - файл больше разрешенного размера
	ErrFileTooLarge = errors.New("file too large")
	// ErrUnsupportedType - тип содержимого не разрешен
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Storage - хранилище загруженных файлов
type Storage interface {
	// Save stores a file at the given path
	Save(ctx context.Context, path string, reader io.Reader) error

	// Delete removes a file at the given path
	Delete(ctx context.Context, path string) error
}

// Config holds storage configuration
type Config struct {
	BasePath string // Корень для локального хранилища
}
