package filestore

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()

	fs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}
	return fs
}

func TestSaveResume_NamingAndContent(t *testing.T) {
	fs := newTestStore(t)

	content := "резюме в формате pdf"
	result, err := fs.SaveResume(strings.NewReader(content), "123.456.789-00", "Currículo Final.PDF")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	// Имя: цифры CPF + timestamp + расширение в нижнем регистре
	if !strings.HasPrefix(result.Filename, "12345678900_") {
		t.Errorf("имя файла должно начинаться с цифр CPF: %q", result.Filename)
	}
	if !strings.HasSuffix(result.Filename, ".pdf") {
		t.Errorf("расширение должно быть .pdf в нижнем регистре: %q", result.Filename)
	}
	if result.Size != int64(len(content)) {
		t.Errorf("размер: ожидалось %d, получено %d", len(content), result.Size)
	}

	data, err := os.ReadFile(result.FullPath)
	if err != nil {
		t.Fatalf("ошибка чтения сохранённого файла: %v", err)
	}
	if string(data) != content {
		t.Error("содержимое файла не совпадает с записанным")
	}

	// Временных файлов не осталось
	entries, _ := os.ReadDir(fs.UploadDir())
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("остался временный файл: %s", e.Name())
		}
	}
}

func TestSaveResume_SanitizedExtension(t *testing.T) {
	fs := newTestStore(t)

	// Символы вне допустимого набора убираются до разбора расширения
	result, err := fs.SaveResume(strings.NewReader("x"), "111", "rés umé!.d&ocx")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if !strings.HasSuffix(result.Filename, ".docx") {
		t.Errorf("ожидалось расширение .docx, получено %q", result.Filename)
	}
}

func TestOpen_RoundTrip(t *testing.T) {
	fs := newTestStore(t)

	result, err := fs.SaveResume(strings.NewReader("данные"), "222", "cv.pdf")
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	f, err := fs.Open(result.Filename)
	if err != nil {
		t.Fatalf("ошибка открытия: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ошибка чтения: %v", err)
	}
	if string(data) != "данные" {
		t.Errorf("содержимое не совпадает: %q", string(data))
	}
}

func TestOpen_NotExist(t *testing.T) {
	fs := newTestStore(t)

	_, err := fs.Open("99900011122_20260101000000.pdf")
	if !errors.Is(err, ErrNotExist) {
		t.Errorf("ожидалась ErrNotExist, получено %v", err)
	}
}

func TestResolve_UnsafeNames(t *testing.T) {
	fs := newTestStore(t)

	tests := []string{
		"",
		".",
		"..",
		"../secret.txt",
		"..\\secret.txt",
		"dir/secret.txt",
		"/etc/passwd",
	}

	for _, name := range tests {
		if _, err := fs.Resolve(name); !errors.Is(err, ErrUnsafeName) {
			t.Errorf("Resolve(%q): ожидалась ErrUnsafeName, получено %v", name, err)
		}
	}
}

func TestResolve_SafeName(t *testing.T) {
	fs := newTestStore(t)

	path, err := fs.Resolve("12345678900_20260101000000.pdf")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if filepath.Dir(path) != fs.UploadDir() {
		t.Errorf("путь должен быть внутри директории загрузок: %q", path)
	}
}

func TestDelete_Existing(t *testing.T) {
	fs := newTestStore(t)

	result, err := fs.SaveResume(strings.NewReader("x"), "333", "cv.doc")
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if err := fs.Delete(result.Filename); err != nil {
		t.Fatalf("ошибка удаления: %v", err)
	}
	if fs.Exists(result.Filename) {
		t.Error("файл должен быть удалён")
	}
}

func TestDelete_MissingIsNotError(t *testing.T) {
	fs := newTestStore(t)

	if err := fs.Delete("no_such_file.pdf"); err != nil {
		t.Errorf("удаление отсутствующего файла не должно быть ошибкой: %v", err)
	}
}

func TestDelete_UnsafeName(t *testing.T) {
	fs := newTestStore(t)

	if err := fs.Delete("../talentos.json"); !errors.Is(err, ErrUnsafeName) {
		t.Errorf("ожидалась ErrUnsafeName, получено %v", err)
	}
}

func TestDigitsOnly(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"123.456.789-00", "12345678900"},
		{"12345678900", "12345678900"},
		{"abc", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := DigitsOnly(tt.in); got != tt.want {
			t.Errorf("DigitsOnly(%q) = %q, ожидалось %q", tt.in, got, tt.want)
		}
	}
}
