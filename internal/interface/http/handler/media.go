package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
)

// Разрешённые типы изображений: определяются по магическим байтам, не по заголовку.
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

func sameExtension(ext, detected string) bool {
	if ext == detected {
		return true
	}
	jpeg := map[string]bool{".jpg": true, ".jpeg": true}
	return jpeg[ext] && jpeg[detected]
}

// sniffImage проверяет файл и возвращает его реальный MIME тип. Позиция чтения
// возвращается в начало.
func sniffImage(header *multipart.FileHeader, src multipart.File) (string, error) {
	if header.Size == 0 {
		return "", apperror.New(apperror.ErrCodeValidation, "файл не может быть пустым")
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return "", apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("неподдерживаемый формат файла %s", ext))
	}

	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		return "", apperror.New(apperror.ErrCodeValidation, "не удалось прочитать файл")
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown {
		return "", apperror.New(apperror.ErrCodeValidation, "не удалось определить тип файла, разрешены только изображения")
	}

	contentType := kind.MIME.Value
	if !allowedMimeTypes[contentType] {
		return "", apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("неподдерживаемый тип файла (%s)", contentType))
	}
	if !sameExtension(ext, "."+kind.Extension) {
		return "", apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("расширение файла (%s) не соответствует реальному типу (.%s)", ext, kind.Extension))
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("media: не удалось сбросить позицию файла: %w", err)
	}
	return contentType, nil
}
