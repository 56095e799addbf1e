// Пакет service — бизнес-логика Intake Module.
// intake.go — регистрация, список и удаление кандидатов.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	apierrors "github.com/arturkryukov/talentos/intake-module/internal/api/errors"
	"github.com/arturkryukov/talentos/intake-module/internal/api/middleware"
	"github.com/arturkryukov/talentos/intake-module/internal/config"
	"github.com/arturkryukov/talentos/intake-module/internal/domain/model"
	"github.com/arturkryukov/talentos/intake-module/internal/repository"
	"github.com/arturkryukov/talentos/intake-module/internal/storage/filestore"
)

// UploadParams — параметры регистрации кандидата.
type UploadParams struct {
	// Name, Email, CPF, Phone, DesiredRole — обязательные текстовые поля формы
	Name        string
	Email       string
	CPF         string
	Phone       string
	DesiredRole string
	// Reader — поток данных файла резюме
	Reader io.Reader
	// OriginalFilename — оригинальное имя файла резюме
	OriginalFilename string
	// Size — размер файла (из multipart part)
	Size int64
}

// OpError — ошибка операции с HTTP-кодом.
type OpError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IntakeService — сервис реестра кандидатов.
type IntakeService struct {
	cfg    *config.Config
	repo   repository.CandidateRepository
	store  *filestore.FileStore
	logger *slog.Logger
}

// NewIntakeService создаёт сервис реестра кандидатов.
func NewIntakeService(
	cfg *config.Config,
	repo repository.CandidateRepository,
	store *filestore.FileStore,
	logger *slog.Logger,
) *IntakeService {
	return &IntakeService{
		cfg:    cfg,
		repo:   repo,
		store:  store,
		logger: logger.With(slog.String("component", "intake_service")),
	}
}

// Upload регистрирует кандидата: валидация полей, проверка расширения
// и размера, пред-проверки уникальности, запись файла и вставка записи.
//
// Поток:
//  1. Валидация обязательных полей и файла
//  2. Пред-проверка email, затем CPF (UX: читаемое сообщение до записи)
//  3. Запись файла резюме (temp → fsync → rename)
//  4. Вставка записи; констрейнты схемы — окончательный арбитр уникальности
//
// Файл пишется до вставки. При ошибке вставки файл-сирота удаляется
// (компенсирующая очистка), состояние диска и базы остаётся согласованным.
func (s *IntakeService) Upload(ctx context.Context, params UploadParams) (*model.Candidate, *OpError) {
	// 1. Обязательные текстовые поля
	required := []struct {
		field, value string
	}{
		{"nome", params.Name},
		{"email", params.Email},
		{"cpf", params.CPF},
		{"telefone", params.Phone},
		{"vaga_desejada", params.DesiredRole},
	}
	for _, f := range required {
		if f.value == "" {
			return nil, &OpError{
				StatusCode: 400,
				Code:       apierrors.CodeValidationError,
				Message:    fmt.Sprintf("Поле '%s' обязательно", f.field),
			}
		}
	}

	if params.Reader == nil || params.OriginalFilename == "" {
		return nil, &OpError{
			StatusCode: 400,
			Code:       apierrors.CodeValidationError,
			Message:    "Файл резюме не передан",
		}
	}

	ext := filepath.Ext(params.OriginalFilename)
	if ext == "" || !s.cfg.ExtensionAllowed(ext) {
		return nil, &OpError{
			StatusCode: 400,
			Code:       apierrors.CodeValidationError,
			Message:    fmt.Sprintf("Недопустимое расширение файла %q", ext),
		}
	}

	if params.Size > s.cfg.MaxFileSize {
		return nil, &OpError{
			StatusCode: 413,
			Code:       apierrors.CodeFileTooLarge,
			Message:    fmt.Sprintf("Размер файла %d байт превышает максимум %d байт", params.Size, s.cfg.MaxFileSize),
		}
	}

	// 2. Пред-проверки уникальности (короткое замыкание: сначала email)
	if exists, err := s.repo.ExistsByEmail(ctx, params.Email); err != nil {
		return nil, s.internal("Ошибка проверки email", err)
	} else if exists {
		return nil, &OpError{
			StatusCode: 409,
			Code:       apierrors.CodeConflict,
			Message:    "Этот email уже зарегистрирован",
		}
	}
	if exists, err := s.repo.ExistsByCPF(ctx, params.CPF); err != nil {
		return nil, s.internal("Ошибка проверки CPF", err)
	} else if exists {
		return nil, &OpError{
			StatusCode: 409,
			Code:       apierrors.CodeConflict,
			Message:    "Этот CPF уже зарегистрирован",
		}
	}

	// 3. Запись файла резюме
	saved, err := s.store.SaveResume(params.Reader, params.CPF, params.OriginalFilename)
	if err != nil {
		middleware.OperationsTotal.WithLabelValues("upload", "error").Inc()
		return nil, s.internal("Ошибка сохранения файла резюме", err)
	}

	// 4. Вставка записи
	candidate := &model.Candidate{
		Name:           params.Name,
		Email:          params.Email,
		CPF:            params.CPF,
		Phone:          params.Phone,
		DesiredRole:    params.DesiredRole,
		ResumeFilename: saved.Filename,
	}

	if err := s.repo.Create(ctx, candidate); err != nil {
		// Компенсирующая очистка: запись не создана, файл-сирота не нужен
		if rmErr := s.store.Delete(saved.Filename); rmErr != nil {
			s.logger.Error("Не удалось удалить файл-сироту после ошибки вставки",
				slog.String("filename", saved.Filename),
				slog.String("error", rmErr.Error()),
			)
		}

		// Нарушение уникальности из схемы — тот же 409, что и пред-проверка
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, &OpError{
				StatusCode: 409,
				Code:       apierrors.CodeConflict,
				Message:    "Этот email уже зарегистрирован",
			}
		}
		if errors.Is(err, repository.ErrDuplicateCPF) {
			return nil, &OpError{
				StatusCode: 409,
				Code:       apierrors.CodeConflict,
				Message:    "Этот CPF уже зарегистрирован",
			}
		}

		middleware.OperationsTotal.WithLabelValues("upload", "error").Inc()
		return nil, s.internal("Ошибка сохранения кандидата", err)
	}

	middleware.OperationsTotal.WithLabelValues("upload", "success").Inc()
	middleware.CandidatesTotal.Inc()

	s.logger.Info("Кандидат зарегистрирован",
		slog.Int64("id", candidate.ID),
		slog.String("email", candidate.Email),
		slog.String("resume", candidate.ResumeFilename),
		slog.Int64("size", saved.Size),
	)

	return candidate, nil
}

// List возвращает всех кандидатов, новые первыми.
func (s *IntakeService) List(ctx context.Context) ([]model.CandidateResponse, *OpError) {
	candidates, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.internal("Ошибка получения списка кандидатов", err)
	}

	result := make([]model.CandidateResponse, 0, len(candidates))
	for _, c := range candidates {
		result = append(result, c.ToResponse())
	}
	return result, nil
}

// Delete удаляет кандидата и его файл резюме.
//
// Порядок выбран явно: сначала удаляется запись (однозначный коммит),
// затем файл. Отсутствующий файл — не ошибка; ошибка удаления файла
// после коммита лишь логируется как сирота и клиенту не видна.
// Это исключает «висячую» запись, указывающую на несуществующий файл.
func (s *IntakeService) Delete(ctx context.Context, id int64) *OpError {
	candidate, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &OpError{
				StatusCode: 404,
				Code:       apierrors.CodeNotFound,
				Message:    fmt.Sprintf("Кандидат %d не найден", id),
			}
		}
		return s.internal("Ошибка получения кандидата", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Параллельное удаление успело раньше
			return &OpError{
				StatusCode: 404,
				Code:       apierrors.CodeNotFound,
				Message:    fmt.Sprintf("Кандидат %d не найден", id),
			}
		}
		middleware.OperationsTotal.WithLabelValues("delete", "error").Inc()
		return s.internal("Ошибка удаления кандидата", err)
	}

	if err := s.store.Delete(candidate.ResumeFilename); err != nil {
		s.logger.Error("Файл резюме остался сиротой после удаления записи",
			slog.Int64("id", id),
			slog.String("filename", candidate.ResumeFilename),
			slog.String("error", err.Error()),
		)
	}

	middleware.OperationsTotal.WithLabelValues("delete", "success").Inc()
	middleware.CandidatesTotal.Dec()

	s.logger.Info("Кандидат удалён",
		slog.Int64("id", id),
		slog.String("resume", candidate.ResumeFilename),
	)
	return nil
}

// internal логирует причину и возвращает клиенту обезличенную 500.
func (s *IntakeService) internal(msg string, err error) *OpError {
	s.logger.Error(msg, slog.String("error", err.Error()))
	return &OpError{
		StatusCode: 500,
		Code:       apierrors.CodeInternalError,
		Message:    "Внутренняя ошибка при обработке запроса",
	}
}
