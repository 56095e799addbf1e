// Пакет config — загрузка и валидация конфигурации Intake Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Intake Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (диапазон 8020-8029)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Разрешённые CORS origins (через запятую, по умолчанию "*")
	CORSAllowedOrigins []string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration

	// --- Хранилище ---

	// Строка подключения к PostgreSQL. Пустая — используется
	// локальное файловое хранилище (LocalDBPath).
	DatabaseURL string
	// Путь к файлу локального хранилища (fallback без PostgreSQL)
	LocalDBPath string
	// Директория для файлов резюме
	UploadDir string

	// --- Загрузка резюме ---

	// Разрешённые расширения файлов резюме (без точки, нижний регистр).
	// Список — конфигурация, не константа: состав менялся между ревизиями.
	AllowedExtensions []string
	// Максимальный размер файла резюме в байтах
	MaxFileSize int64

	// --- Доступ ---

	// Статический секрет для bearer-аутентификации защищённых endpoints.
	// Пустой — сервис стартует, но защищённые endpoints отвечают 500
	// (fail closed).
	APIToken string

	// --- topologymetrics (только при PostgreSQL) ---

	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration
	// Имя группы в метриках topologymetrics
	DephealthGroup string
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// IM_PORT — порт HTTP-сервера (по умолчанию 8020)
	cfg.Port, err = getEnvInt("IM_PORT", 8020)
	if err != nil {
		return nil, fmt.Errorf("IM_PORT: %w", err)
	}
	if cfg.Port < 8020 || cfg.Port > 8029 {
		return nil, fmt.Errorf("IM_PORT: значение %d вне допустимого диапазона 8020-8029", cfg.Port)
	}

	// IM_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("IM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("IM_LOG_LEVEL: %w", err)
	}

	// IM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("IM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("IM_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// IM_CORS_ALLOWED_ORIGINS — разрешённые origins (по умолчанию "*")
	cfg.CORSAllowedOrigins = parseCSV(getEnvDefault("IM_CORS_ALLOWED_ORIGINS", "*"))

	// IM_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("IM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IM_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- Хранилище ---

	// IM_DATABASE_URL — опциональный; пустой включает локальное хранилище
	cfg.DatabaseURL = getEnvDefault("IM_DATABASE_URL", "")

	// IM_LOCAL_DB_PATH — файл локального хранилища (по умолчанию talentos.json)
	cfg.LocalDBPath = getEnvDefault("IM_LOCAL_DB_PATH", "talentos.json")

	// IM_UPLOAD_DIR — директория резюме (по умолчанию uploads)
	cfg.UploadDir = getEnvDefault("IM_UPLOAD_DIR", "uploads")

	// --- Загрузка резюме ---

	// IM_ALLOWED_EXTENSIONS — разрешённые расширения (по умолчанию pdf,doc,docx)
	cfg.AllowedExtensions = normalizeExtensions(
		parseCSV(getEnvDefault("IM_ALLOWED_EXTENSIONS", "pdf,doc,docx")))
	if len(cfg.AllowedExtensions) == 0 {
		return nil, fmt.Errorf("IM_ALLOWED_EXTENSIONS: список расширений не может быть пустым")
	}

	// IM_MAX_FILE_SIZE — максимальный размер резюме (по умолчанию 16 MiB)
	cfg.MaxFileSize, err = getEnvInt64("IM_MAX_FILE_SIZE", 16*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("IM_MAX_FILE_SIZE: %w", err)
	}
	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("IM_MAX_FILE_SIZE: значение должно быть положительным")
	}

	// --- Доступ ---

	// IM_API_TOKEN — опциональный; пустое значение означает fail closed
	cfg.APIToken = getEnvDefault("IM_API_TOKEN", "")

	// --- topologymetrics ---

	// IM_DEPHEALTH_CHECK_INTERVAL — интервал проверки (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("IM_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// IM_DEPHEALTH_GROUP — имя группы (по умолчанию talentos)
	cfg.DephealthGroup = getEnvDefault("IM_DEPHEALTH_GROUP", "talentos")

	return cfg, nil
}

// ExtensionAllowed проверяет, входит ли расширение (без точки,
// регистронезависимо) в список разрешённых.
func (c *Config) ExtensionAllowed(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, allowed := range c.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 из переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// normalizeExtensions приводит расширения к нижнему регистру без точек.
func normalizeExtensions(exts []string) []string {
	result := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			result = append(result, e)
		}
	}
	return result
}
