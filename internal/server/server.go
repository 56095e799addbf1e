// Пакет server — HTTP-сервер Intake Module с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/arturkryukov/talentos/intake-module/internal/api/handlers"
	"github.com/arturkryukov/talentos/intake-module/internal/api/middleware"
	"github.com/arturkryukov/talentos/intake-module/internal/config"
)

// Server — HTTP-сервер Intake Module.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// Handlers — набор обработчиков для маршрутизации.
type Handlers struct {
	Candidates *handlers.CandidatesHandler
	Files      *handlers.FilesHandler
	Health     *handlers.HealthHandler
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, h Handlers) *Server {
	router := NewRouter(cfg, logger, h)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
		// ReadTimeout не задаётся: загрузка резюме может идти долго,
		// предел тела запроса контролируется MaxBytesReader в handler.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает chi-маршрутизатор со всеми middleware и routes.
// Вынесен отдельно для использования в httptest.
func NewRouter(cfg *config.Config, logger *slog.Logger, h Handlers) *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	auth := middleware.NewTokenAuth(cfg.APIToken, logger)

	// Публичная регистрация кандидата
	router.Post("/upload", h.Candidates.Upload)

	// Защищённые endpoints: список, выдача файла, удаление
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware())
		r.Get("/candidatos", h.Candidates.List)
		r.Get("/download/{filename}", h.Files.Download)
		r.Delete("/delete/{id}", h.Candidates.Delete)
	})

	// Служебные endpoints
	router.Get("/health/live", h.Health.HealthLive)
	router.Get("/health/ready", h.Health.HealthReady)
	router.Get("/metrics", h.Health.GetMetrics)

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
