// metrics.go — Prometheus HTTP метрики Intake Module.
// Регистрирует метрики: im_http_requests_total, im_http_request_duration_seconds.
// Бизнес-метрики (im_candidates_total, im_operations_total) обновляются
// из сервисного слоя.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "im_http_requests_total",
			Help: "Общее количество HTTP-запросов к Intake Module",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "im_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Intake Module в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Бизнес-метрики (экспортируются для обновления из сервисного слоя)
var (
	// CandidatesTotal — текущее количество кандидатов в реестре (gauge).
	CandidatesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "im_candidates_total",
			Help: "Текущее количество кандидатов в реестре",
		},
	)

	// OperationsTotal — общее количество операций реестра.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "im_operations_total",
			Help: "Общее количество операций реестра кандидатов",
		},
		[]string{"operation", "result"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов
			// (параметризованные сегменты схлопываются, чтобы не раздувать кардинальность)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath схлопывает параметризованные сегменты пути.
// /download/12345678900_20260831.pdf → /download/{filename}
// /delete/42 → /delete/{id}
func normalizePath(path string) string {
	switch {
	case path == "/upload", path == "/candidatos", path == "/metrics",
		path == "/health/live", path == "/health/ready":
		return path
	case strings.HasPrefix(path, "/download/"):
		return "/download/{filename}"
	case strings.HasPrefix(path, "/delete/"):
		return "/delete/{id}"
	}
	return path
}
