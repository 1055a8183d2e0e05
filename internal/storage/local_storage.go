package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
)

// LocalStorage хранит файлы объявлений на диске и отдаёт их через статический маршрут.
type LocalStorage struct {
	rootPath       string
	publicBaseURL  string
	maxUploadBytes int64
}

// NewLocalStorage создаёт файловое хранилище.
func NewLocalStorage(rootPath, publicBaseURL string, maxUploadMB int64) (*LocalStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &LocalStorage{
		rootPath:       rootPath,
		publicBaseURL:  strings.TrimSuffix(publicBaseURL, "/"),
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Save сохраняет файл в каталоге объявления.
func (s *LocalStorage) Save(ctx context.Context, listingID uuid.UUID, originalName, contentType string, r io.Reader) (entity.MediaRef, error) {
	if err := ctx.Err(); err != nil {
		return entity.MediaRef{}, err
	}

	key := objectKey(listingID, originalName)
	targetPath := filepath.Join(s.rootPath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return entity.MediaRef{}, fmt.Errorf("storage: не удалось создать каталог объявления: %w", err)
	}

	tempPath := targetPath + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return entity.MediaRef{}, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limitedReader := io.LimitedReader{R: r, N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limitedReader)
	if err != nil {
		_ = os.Remove(tempPath)
		return entity.MediaRef{}, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}
	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return entity.MediaRef{}, fmt.Errorf("storage: размер файла превышает лимит %d байт", s.maxUploadBytes)
	}

	if err := f.Close(); err != nil {
		return entity.MediaRef{}, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		return entity.MediaRef{}, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return entity.MediaRef{
		Key:         key,
		URL:         s.publicBaseURL + "/" + key,
		ContentType: contentType,
	}, nil
}

// Delete удаляет файл. Отсутствующий файл не считается ошибкой.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.rootPath, filepath.FromSlash(path.Clean("/"+key)))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// objectKey строит ключ вида listings/<id>/<uuid>_<имя>; одинаков для диска и S3.
func objectKey(listingID uuid.UUID, originalName string) string {
	return path.Join("listings", listingID.String(), uuid.NewString()+"_"+sanitizeFilename(originalName))
}

// sanitizeFilename удаляет потенциально опасные символы.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." {
		name = "media"
	}
	return name
}
