// Пакет handlers — HTTP-обработчики Intake Module.
// candidates.go — регистрация, список и удаление кандидатов.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/arturkryukov/talentos/intake-module/internal/api/errors"
	"github.com/arturkryukov/talentos/intake-module/internal/config"
	"github.com/arturkryukov/talentos/intake-module/internal/service"
)

// CandidatesHandler — обработчик endpoints реестра кандидатов.
type CandidatesHandler struct {
	cfg       *config.Config
	intakeSvc *service.IntakeService
}

// NewCandidatesHandler создаёт обработчик endpoints реестра кандидатов.
func NewCandidatesHandler(cfg *config.Config, intakeSvc *service.IntakeService) *CandidatesHandler {
	return &CandidatesHandler{
		cfg:       cfg,
		intakeSvc: intakeSvc,
	}
}

// uploadResponse — ответ успешной регистрации.
type uploadResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// deleteResponse — ответ успешного удаления.
type deleteResponse struct {
	Message string `json:"message"`
}

// Upload обрабатывает POST /upload.
// Multipart form: nome, email, cpf, telefone, vaga_desejada (обязательные
// текстовые поля), curriculo (обязательный файл).
func (h *CandidatesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Жёсткий предел тела запроса: размер файла + запас на заголовки полей
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxFileSize+1<<20)

	// Парсим multipart form (буфер в памяти, остальное — на диск)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			apierrors.FileTooLarge(w,
				fmt.Sprintf("Размер запроса превышает максимум %d байт", h.cfg.MaxFileSize))
			return
		}
		apierrors.ValidationError(w, fmt.Sprintf("Ошибка парсинга multipart: %s", err.Error()))
		return
	}

	file, header, err := r.FormFile("curriculo")
	if err != nil {
		apierrors.ValidationError(w, "Поле 'curriculo' обязательно")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		apierrors.ValidationError(w, "Файл резюме не выбран")
		return
	}

	candidate, opErr := h.intakeSvc.Upload(r.Context(), service.UploadParams{
		Name:             strings.TrimSpace(r.FormValue("nome")),
		Email:            strings.TrimSpace(r.FormValue("email")),
		CPF:              strings.TrimSpace(r.FormValue("cpf")),
		Phone:            strings.TrimSpace(r.FormValue("telefone")),
		DesiredRole:      strings.TrimSpace(r.FormValue("vaga_desejada")),
		Reader:           file,
		OriginalFilename: header.Filename,
		Size:             header.Size,
	})
	if opErr != nil {
		apierrors.WriteError(w, opErr.StatusCode, opErr.Code, opErr.Message)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		Message: "Cadastro realizado com sucesso!",
		ID:      candidate.ID,
	})
}

// List обрабатывает GET /candidatos.
// Возвращает всех кандидатов, новые первыми.
func (h *CandidatesHandler) List(w http.ResponseWriter, r *http.Request) {
	candidates, opErr := h.intakeSvc.List(r.Context())
	if opErr != nil {
		apierrors.WriteError(w, opErr.StatusCode, opErr.Code, opErr.Message)
		return
	}

	writeJSON(w, http.StatusOK, candidates)
}

// Delete обрабатывает DELETE /delete/{id}.
func (h *CandidatesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		apierrors.ValidationError(w, fmt.Sprintf("Некорректный идентификатор кандидата: %q", idParam))
		return
	}

	if opErr := h.intakeSvc.Delete(r.Context(), id); opErr != nil {
		apierrors.WriteError(w, opErr.StatusCode, opErr.Code, opErr.Message)
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{
		Message: "Candidato removido com sucesso!",
	})
}

// writeJSON вспомогательная функция для записи JSON-ответа.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
