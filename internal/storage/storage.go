// Package storage - хранилище загруженных документов (локальный диск или S3-совместимое).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/google/uuid"
)

// Storage - минимальный набор операций для документов
type Storage interface {
	Save(ctx context.Context, key string, reader io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Config - параметры хранилища из конфигурации
type Config struct {
	Type      string // local, s3, cloudflare_r2
	BasePath  string
	BaseURL   string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

var ErrInvalidKey = errors.New("storage: invalid key")

// New выбирает реализацию по cfg.Type
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg)
	case "s3", "cloudflare_r2":
		return NewObjectStorage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// Допустимые типы документов и их расширения
var documentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// DetectDocumentType определяет тип по первым байтам; ok=false для неразрешенных типов
func DetectDocumentType(head []byte) (contentType, ext string, ok bool) {
	contentType = http.DetectContentType(head)
	ext, ok = documentTypes[contentType]
	return contentType, ext, ok
}

// DocumentKey - ключ вида insurance/<owner>/<uuid>.pdf
func DocumentKey(prefix, ownerID, ext string) string {
	return path.Join(prefix, ownerID, uuid.NewString()+ext)
}
