// Пакет filestore — операции с файлами резюме на диске.
// Обеспечивает streaming-запись, чтение и удаление файлов
// в пределах директории загрузок.
package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore — управление файлами резюме на диске.
type FileStore struct {
	// uploadDir — корневая директория загрузок (IM_UPLOAD_DIR)
	uploadDir string
}

// SaveResult — результат сохранения файла резюме.
type SaveResult struct {
	// Filename — имя файла относительно uploadDir
	Filename string
	// FullPath — абсолютный путь файла на диске
	FullPath string
	// Size — размер записанных данных в байтах
	Size int64
}

// New создаёт новый FileStore. Проверяет и создаёт директорию
// если она не существует.
func New(uploadDir string) (*FileStore, error) {
	if err := os.MkdirAll(uploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию загрузок %s: %w", uploadDir, err)
	}

	return &FileStore{uploadDir: uploadDir}, nil
}

// SaveResume записывает резюме из reader на диск.
// Формат имени файла: {cpf только цифры}_{timestamp}{ext}
// Пример: 12345678900_20260831150405.pdf
//
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке temp файл удаляется.
func (fs *FileStore) SaveResume(reader io.Reader, cpf, originalFilename string) (*SaveResult, error) {
	filename := generateResumeName(cpf, originalFilename)
	fullPath := filepath.Join(fs.uploadDir, filename)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	size, err := io.Copy(f, reader)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка записи данных: %w", err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	// Атомарный rename
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return &SaveResult{
		Filename: filename,
		FullPath: fullPath,
		Size:     size,
	}, nil
}

// Open открывает файл резюме для чтения по имени в пределах uploadDir.
// Имя валидируется против path traversal: любые разделители пути
// или компонент ".." отклоняются. Вызывающий код обязан закрыть файл.
func (fs *FileStore) Open(filename string) (*os.File, error) {
	fullPath, err := fs.Resolve(filename)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, filename)
		}
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", filename, err)
	}

	return f, nil
}

// Ошибки FileStore.
var (
	// ErrNotExist — файл не найден в директории загрузок.
	ErrNotExist = fmt.Errorf("файл не найден")
	// ErrUnsafeName — имя файла содержит разделители пути или "..".
	ErrUnsafeName = fmt.Errorf("небезопасное имя файла")
)

// Resolve возвращает абсолютный путь файла строго внутри uploadDir.
// Имя с разделителями пути, компонентом ".." или пустое — отклоняется.
func (fs *FileStore) Resolve(filename string) (string, error) {
	if filename == "" ||
		strings.ContainsAny(filename, `/\`) ||
		filename != filepath.Base(filename) ||
		filename == "." || filename == ".." {
		return "", fmt.Errorf("%w: %q", ErrUnsafeName, filename)
	}
	return filepath.Join(fs.uploadDir, filename), nil
}

// Delete удаляет файл резюме с диска.
// Возвращает nil если файл уже не существует.
func (fs *FileStore) Delete(filename string) error {
	fullPath, err := fs.Resolve(filename)
	if err != nil {
		return err
	}

	if rmErr := os.Remove(fullPath); rmErr != nil && !os.IsNotExist(rmErr) {
		return fmt.Errorf("ошибка удаления файла %s: %w", filename, rmErr)
	}
	return nil
}

// Exists проверяет существование файла резюме на диске.
func (fs *FileStore) Exists(filename string) bool {
	fullPath, err := fs.Resolve(filename)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(fullPath)
	return statErr == nil
}

// UploadDir возвращает путь к директории загрузок.
func (fs *FileStore) UploadDir() string {
	return fs.uploadDir
}

// DigitsOnly убирает из CPF всё, кроме цифр.
// "123.456.789-00" → "12345678900".
func DigitsOnly(cpf string) string {
	var result strings.Builder
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// generateResumeName генерирует имя файла резюме для хранения на диске.
// Формат: {cpf только цифры}_{timestamp с точностью до секунды}{ext}
// Расширение берётся из оригинального имени после санитизации.
func generateResumeName(cpf, originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(sanitize(filepath.Base(originalFilename))))
	ts := time.Now().UTC().Format("20060102150405")
	return fmt.Sprintf("%s_%s%s", DigitsOnly(cpf), ts, ext)
}

// sanitize убирает небезопасные символы из имени файла.
// Оставляет только буквы, цифры, точку, дефис и подчёркивание.
func sanitize(s string) string {
	var result strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			result.WriteRune(r)
		}
	}
	if result.Len() == 0 {
		return "file"
	}
	return result.String()
}
