package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arturkryukov/talentos/intake-module/internal/config"
	"github.com/arturkryukov/talentos/intake-module/internal/domain/model"
	"github.com/arturkryukov/talentos/intake-module/internal/repository"
	"github.com/arturkryukov/talentos/intake-module/internal/storage/filestore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		AllowedExtensions: []string{"pdf", "doc", "docx"},
		MaxFileSize:       1024 * 1024,
	}
}

// newTestService собирает IntakeService на локальном хранилище
// во временной директории.
func newTestService(t *testing.T) (*IntakeService, *filestore.FileStore) {
	t.Helper()

	dir := t.TempDir()
	store, err := filestore.New(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}
	repo, err := repository.NewLocalStore(filepath.Join(dir, "talentos.json"), testLogger())
	if err != nil {
		t.Fatalf("ошибка создания хранилища: %v", err)
	}

	return NewIntakeService(testConfig(), repo, store, testLogger()), store
}

func validParams(n int) UploadParams {
	content := "conteúdo do currículo"
	return UploadParams{
		Name:             fmt.Sprintf("Candidato %d", n),
		Email:            fmt.Sprintf("candidato%d@example.com", n),
		CPF:              fmt.Sprintf("%011d", n),
		Phone:            "+55 11 98888-0000",
		DesiredRole:      "Desenvolvedor Go",
		Reader:           strings.NewReader(content),
		OriginalFilename: "curriculo.pdf",
		Size:             int64(len(content)),
	}
}

// uploadedFiles возвращает имена файлов в директории загрузок.
func uploadedFiles(t *testing.T, store *filestore.FileStore) []string {
	t.Helper()

	entries, err := os.ReadDir(store.UploadDir())
	if err != nil {
		t.Fatalf("ошибка чтения директории загрузок: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestUpload_HappyPath(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	c, opErr := svc.Upload(ctx, validParams(1))
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}
	if c.ID != 1 {
		t.Errorf("ID: ожидалось 1, получено %d", c.ID)
	}
	if !strings.HasPrefix(c.ResumeFilename, "00000000001_") {
		t.Errorf("имя файла должно начинаться с цифр CPF: %q", c.ResumeFilename)
	}
	if !store.Exists(c.ResumeFilename) {
		t.Error("файл резюме должен существовать на диске")
	}
}

func TestUpload_MissingFields(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	clear := func(p *UploadParams, field string) {
		switch field {
		case "nome":
			p.Name = ""
		case "email":
			p.Email = ""
		case "cpf":
			p.CPF = ""
		case "telefone":
			p.Phone = ""
		case "vaga_desejada":
			p.DesiredRole = ""
		}
	}

	for _, field := range []string{"nome", "email", "cpf", "telefone", "vaga_desejada"} {
		t.Run(field, func(t *testing.T) {
			params := validParams(1)
			clear(&params, field)

			_, opErr := svc.Upload(ctx, params)
			if opErr == nil {
				t.Fatal("ожидалась ошибка валидации")
			}
			if opErr.StatusCode != http.StatusBadRequest {
				t.Errorf("статус: ожидалось 400, получено %d", opErr.StatusCode)
			}
			if !strings.Contains(opErr.Message, field) {
				t.Errorf("сообщение должно называть поле %q: %q", field, opErr.Message)
			}
		})
	}

	// Ни одной записи и ни одного файла после отказов валидации
	list, _ := svc.List(ctx)
	if len(list) != 0 {
		t.Errorf("записей быть не должно, получено %d", len(list))
	}
	if files := uploadedFiles(t, store); len(files) != 0 {
		t.Errorf("файлов быть не должно, получено %v", files)
	}
}

func TestUpload_MissingFile(t *testing.T) {
	svc, _ := newTestService(t)

	params := validParams(1)
	params.Reader = nil
	params.OriginalFilename = ""

	_, opErr := svc.Upload(context.Background(), params)
	if opErr == nil || opErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("ожидалась 400, получено %+v", opErr)
	}
}

func TestUpload_DisallowedExtension(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	for _, filename := range []string{"virus.exe", "curriculo", "arquivo.pdf.sh"} {
		params := validParams(1)
		params.OriginalFilename = filename

		_, opErr := svc.Upload(ctx, params)
		if opErr == nil || opErr.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: ожидалась 400, получено %+v", filename, opErr)
		}
	}

	if files := uploadedFiles(t, store); len(files) != 0 {
		t.Errorf("файлов быть не должно, получено %v", files)
	}
}

func TestUpload_FileTooLarge(t *testing.T) {
	svc, _ := newTestService(t)

	params := validParams(1)
	params.Size = 2 * 1024 * 1024 // больше лимита в 1 MiB

	_, opErr := svc.Upload(context.Background(), params)
	if opErr == nil {
		t.Fatal("ожидалась ошибка размера")
	}
	if opErr.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("статус: ожидалось 413, получено %d", opErr.StatusCode)
	}
}

func TestUpload_DuplicateEmail(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, opErr := svc.Upload(ctx, validParams(1)); opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}

	dup := validParams(2)
	dup.Email = "candidato1@example.com"

	_, opErr := svc.Upload(ctx, dup)
	if opErr == nil || opErr.StatusCode != http.StatusConflict {
		t.Fatalf("ожидалась 409, получено %+v", opErr)
	}

	// Отказ по конфликту не оставляет второй файл
	if files := uploadedFiles(t, store); len(files) != 1 {
		t.Errorf("ожидался один файл, получено %v", files)
	}
}

func TestUpload_DuplicateCPF(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, opErr := svc.Upload(ctx, validParams(1)); opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}

	dup := validParams(2)
	dup.CPF = fmt.Sprintf("%011d", 1)

	_, opErr := svc.Upload(ctx, dup)
	if opErr == nil || opErr.StatusCode != http.StatusConflict {
		t.Fatalf("ожидалась 409, получено %+v", opErr)
	}
}

// failingRepo — репозиторий с управляемым отказом Create
// для проверки компенсирующей очистки.
type failingRepo struct {
	repository.CandidateRepository
	createErr error
}

func (f *failingRepo) Create(ctx context.Context, c *model.Candidate) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.CandidateRepository.Create(ctx, c)
}

func TestUpload_CompensatingCleanupOnInsertFailure(t *testing.T) {
	dir := t.TempDir()
	store, err := filestore.New(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}
	local, err := repository.NewLocalStore(filepath.Join(dir, "talentos.json"), testLogger())
	if err != nil {
		t.Fatalf("ошибка создания хранилища: %v", err)
	}

	repo := &failingRepo{CandidateRepository: local, createErr: errors.New("отказ вставки")}
	svc := NewIntakeService(testConfig(), repo, store, testLogger())

	_, opErr := svc.Upload(context.Background(), validParams(1))
	if opErr == nil || opErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("ожидалась 500, получено %+v", opErr)
	}

	// Файл-сирота удалён после отказа вставки
	if files := uploadedFiles(t, store); len(files) != 0 {
		t.Errorf("файл-сирота должен быть удалён, получено %v", files)
	}
}

func TestUpload_ConstraintViolationMapsToConflict(t *testing.T) {
	dir := t.TempDir()
	store, err := filestore.New(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}
	local, err := repository.NewLocalStore(filepath.Join(dir, "talentos.json"), testLogger())
	if err != nil {
		t.Fatalf("ошибка создания хранилища: %v", err)
	}

	// Пред-проверки проходят (пустое хранилище), но вставка
	// отклоняется констрейнтом — окончательным арбитром уникальности
	repo := &failingRepo{CandidateRepository: local, createErr: repository.ErrDuplicateEmail}
	svc := NewIntakeService(testConfig(), repo, store, testLogger())

	_, opErr := svc.Upload(context.Background(), validParams(1))
	if opErr == nil || opErr.StatusCode != http.StatusConflict {
		t.Fatalf("ожидалась 409, получено %+v", opErr)
	}

	if files := uploadedFiles(t, store); len(files) != 0 {
		t.Errorf("файл должен быть удалён при отказе вставки, получено %v", files)
	}
}

func TestDelete_RemovesRecordAndFile(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	c, opErr := svc.Upload(ctx, validParams(1))
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}

	if opErr := svc.Delete(ctx, c.ID); opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}

	list, _ := svc.List(ctx)
	if len(list) != 0 {
		t.Errorf("запись должна быть удалена, получено %d", len(list))
	}
	if store.Exists(c.ResumeFilename) {
		t.Error("файл резюме должен быть удалён")
	}
}

func TestDelete_MissingFileIsTolerated(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	c, opErr := svc.Upload(ctx, validParams(1))
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}

	// Файл исчез с диска до удаления записи
	if err := store.Delete(c.ResumeFilename); err != nil {
		t.Fatalf("ошибка подготовки: %v", err)
	}

	if opErr := svc.Delete(ctx, c.ID); opErr != nil {
		t.Errorf("отсутствие файла не должно быть ошибкой клиента: %+v", opErr)
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	opErr := svc.Delete(context.Background(), 42)
	if opErr == nil || opErr.StatusCode != http.StatusNotFound {
		t.Fatalf("ожидалась 404, получено %+v", opErr)
	}
}

func TestList_Empty(t *testing.T) {
	svc, _ := newTestService(t)

	list, opErr := svc.List(context.Background())
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}
	if len(list) != 0 {
		t.Errorf("ожидался пустой список, получено %d", len(list))
	}
}

func TestDownloadService_TraversalRejected(t *testing.T) {
	dir := t.TempDir()
	store, err := filestore.New(dir)
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}
	svc := NewDownloadService(store, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/download/x", nil)
	svc.Serve(rec, req, "../talentos.json")

	if rec.Code != http.StatusNotFound {
		t.Errorf("статус: ожидалось 404, получено %d", rec.Code)
	}
}

func TestDownloadService_ServesAttachment(t *testing.T) {
	dir := t.TempDir()
	store, err := filestore.New(dir)
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}
	result, err := store.SaveResume(strings.NewReader("pdf-данные"), "111", "cv.pdf")
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	svc := NewDownloadService(store, testLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/download/"+result.Filename, nil)
	svc.Serve(rec, req, result.Filename)

	if rec.Code != http.StatusOK {
		t.Fatalf("статус: ожидалось 200, получено %d", rec.Code)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "attachment") || !strings.Contains(cd, result.Filename) {
		t.Errorf("Content-Disposition: неожиданное значение %q", cd)
	}
	if rec.Body.String() != "pdf-данные" {
		t.Error("тело ответа не совпадает с содержимым файла")
	}
}
