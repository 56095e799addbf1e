// Точка входа Intake Module — приём кандидатов системы Talentos.
// Загружает конфигурацию, выбирает движок хранилища (PostgreSQL или
// локальный файловый), применяет схему БД, инициализирует файловое
// хранилище резюме, сервисный слой и API handlers, запускает
// topologymetrics и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/arturkryukov/talentos/intake-module/internal/api/handlers"
	"github.com/arturkryukov/talentos/intake-module/internal/config"
	"github.com/arturkryukov/talentos/intake-module/internal/database"
	"github.com/arturkryukov/talentos/intake-module/internal/repository"
	"github.com/arturkryukov/talentos/intake-module/internal/server"
	"github.com/arturkryukov/talentos/intake-module/internal/service"
	"github.com/arturkryukov/talentos/intake-module/internal/storage/filestore"
)

func main() {
	// 0. .env для локальной разработки (отсутствие файла — не ошибка)
	_ = godotenv.Load()

	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Intake Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if cfg.APIToken == "" {
		logger.Warn("IM_API_TOKEN не задан, защищённые endpoints будут отвечать 500")
	}

	// 3. Файловое хранилище резюме
	store, err := filestore.New(cfg.UploadDir)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища файлов", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Хранилище файлов резюме готово", slog.String("dir", cfg.UploadDir))

	// 4. Движок хранилища кандидатов
	ctx := context.Background()
	var (
		repo         repository.CandidateRepository
		dephealthSvc *service.DephealthService
	)

	if cfg.DatabaseURL != "" {
		// PostgreSQL
		pool, connErr := database.Connect(ctx, cfg.DatabaseURL, logger)
		if connErr != nil {
			logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", connErr.Error()))
			os.Exit(1)
		}
		defer pool.Close()

		if schemaErr := database.ApplySchema(ctx, pool, logger); schemaErr != nil {
			logger.Error("Ошибка применения схемы БД", slog.String("error", schemaErr.Error()))
			os.Exit(1)
		}

		repo = repository.NewPostgresStore(pool)

		// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
		pgDB := stdlib.OpenDBFromPool(pool)
		defer pgDB.Close()

		dephealthSvc, err = service.NewDephealthService(
			"intake-module",
			cfg.DephealthGroup,
			pgDB,
			cfg.DatabaseURL,
			cfg.DephealthCheckInterval,
			logger,
		)
		if err != nil {
			logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
				slog.String("error", err.Error()),
			)
			dephealthSvc = nil
		} else {
			if startErr := dephealthSvc.Start(ctx); startErr != nil {
				logger.Warn("Ошибка запуска topologymetrics",
					slog.String("error", startErr.Error()),
				)
				dephealthSvc = nil
			} else {
				logger.Info("topologymetrics запущен",
					slog.String("group", cfg.DephealthGroup),
				)
			}
		}
	} else {
		// Локальное файловое хранилище
		localStore, localErr := repository.NewLocalStore(cfg.LocalDBPath, logger)
		if localErr != nil {
			logger.Error("Ошибка инициализации локального хранилища",
				slog.String("path", cfg.LocalDBPath),
				slog.String("error", localErr.Error()),
			)
			os.Exit(1)
		}
		repo = localStore
		logger.Info("PostgreSQL не настроен, используется локальное хранилище",
			slog.String("path", cfg.LocalDBPath),
		)
	}
	defer repo.Close()

	// 5. Сервисный слой
	intakeSvc := service.NewIntakeService(cfg, repo, store, logger)
	downloadSvc := service.NewDownloadService(store, logger)

	// 6. API handlers
	h := server.Handlers{
		Candidates: handlers.NewCandidatesHandler(cfg, intakeSvc),
		Files:      handlers.NewFilesHandler(downloadSvc),
		Health:     handlers.NewHealthHandler(handlers.NewRepositoryChecker(repo), store),
	}

	// 7. HTTP-сервер (блокирующий вызов с graceful shutdown)
	srv := server.New(cfg, logger, h)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Intake Module остановлен")
}
