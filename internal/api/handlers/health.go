// health.go — обработчики health endpoints Intake Module.
// /health/live — liveness probe (процесс жив)
// /health/ready — readiness probe (хранилище кандидатов + директория загрузок)
// /metrics — Prometheus метрики
package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arturkryukov/talentos/intake-module/internal/config"
	"github.com/arturkryukov/talentos/intake-module/internal/repository"
	"github.com/arturkryukov/talentos/intake-module/internal/storage/filestore"
)

// ReadinessChecker — интерфейс проверки готовности зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "fail") и сообщение.
	CheckReady() (status, message string)
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	repoChecker ReadinessChecker
	store       *filestore.FileStore
	promHandler http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
// repoChecker — проверка хранилища кандидатов (может быть nil —
// readiness вернёт "fail").
func NewHealthHandler(repoChecker ReadinessChecker, store *filestore.FileStore) *HealthHandler {
	return &HealthHandler{
		repoChecker: repoChecker,
		store:       store,
		promHandler: promhttp.Handler(),
	}
}

// RepositoryChecker оборачивает Ping репозитория в ReadinessChecker.
type RepositoryChecker struct {
	repo repository.CandidateRepository
}

// NewRepositoryChecker создаёт проверку готовности репозитория.
func NewRepositoryChecker(repo repository.CandidateRepository) *RepositoryChecker {
	return &RepositoryChecker{repo: repo}
}

// CheckReady проверяет хранилище кандидатов через ping.
func (c *RepositoryChecker) CheckReady() (status, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := c.repo.Ping(ctx); err != nil {
		return statusFail, err.Error()
	}
	return "ok", "хранилище доступно"
}

// healthCheckResult — результат проверки одной зависимости.
type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthLiveResponse — ответ liveness probe.
type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

// healthReadyResponse — ответ readiness probe.
type healthReadyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
	Checks    struct {
		Storage   healthCheckResult `json:"storage"`
		UploadDir healthCheckResult `json:"upload_dir"`
	} `json:"checks"`
}

// HealthLive — liveness probe. Возвращает 200 если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	resp := healthLiveResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   "intake-module",
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthReady — readiness probe. Проверяет хранилище кандидатов
// и возможность записи в директорию загрузок.
// Возвращает 200 (ok) или 503 (fail).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	resp := healthReadyResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   "intake-module",
	}

	if h.repoChecker != nil {
		st, msg := h.repoChecker.CheckReady()
		resp.Checks.Storage = healthCheckResult{Status: st, Message: msg}
	} else {
		resp.Checks.Storage = healthCheckResult{Status: statusFail, Message: "не инициализировано"}
	}

	resp.Checks.UploadDir = h.checkUploadDir()

	resp.Status = overallStatus(resp.Checks.Storage.Status, resp.Checks.UploadDir.Status)

	statusCode := http.StatusOK
	if resp.Status == statusFail {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, resp)
}

// checkUploadDir проверяет возможность записи в директорию загрузок
// пробным файлом.
func (h *HealthHandler) checkUploadDir() healthCheckResult {
	probe := filepath.Join(h.store.UploadDir(), ".intake_health_check")
	if err := os.WriteFile(probe, []byte("ok"), 0o640); err != nil {
		return healthCheckResult{Status: statusFail, Message: err.Error()}
	}
	_ = os.Remove(probe)
	return healthCheckResult{Status: "ok", Message: "запись доступна"}
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

// Константа статуса отказа health check.
const statusFail = "fail"

// overallStatus определяет итоговый статус из статусов зависимостей.
// Если хотя бы одна зависимость fail — итог fail, иначе ok.
func overallStatus(statuses ...string) string {
	for _, s := range statuses {
		if s == statusFail {
			return statusFail
		}
	}
	return "ok"
}
