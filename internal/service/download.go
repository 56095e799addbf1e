// download.go — выдача файлов резюме.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/arturkryukov/talentos/intake-module/internal/api/errors"
	"github.com/arturkryukov/talentos/intake-module/internal/api/middleware"
	"github.com/arturkryukov/talentos/intake-module/internal/storage/filestore"
)

// DownloadService — сервис выдачи файлов резюме.
type DownloadService struct {
	store  *filestore.FileStore
	logger *slog.Logger
}

// NewDownloadService создаёт сервис выдачи файлов.
func NewDownloadService(store *filestore.FileStore, logger *slog.Logger) *DownloadService {
	return &DownloadService{
		store:  store,
		logger: logger.With(slog.String("component", "download_service")),
	}
}

// Serve отдаёт файл резюме как вложение.
// Имя файла проверяется на попытки выхода за каталог загрузок,
// небезопасное имя возвращается клиенту как 404 без деталей.
func (s *DownloadService) Serve(w http.ResponseWriter, r *http.Request, filename string) {
	f, err := s.store.Open(filename)
	if err != nil {
		if errors.Is(err, filestore.ErrUnsafeName) {
			s.logger.Warn("Отклонено небезопасное имя файла",
				slog.String("filename", filename),
				slog.String("remote_addr", r.RemoteAddr),
			)
			apierrors.NotFound(w, "Файл не найден")
			return
		}
		if errors.Is(err, filestore.ErrNotExist) {
			apierrors.NotFound(w, "Файл не найден")
			return
		}
		s.logger.Error("Ошибка открытия файла резюме",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при выдаче файла")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.logger.Error("Ошибка stat файла резюме",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при выдаче файла")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Name()))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)

	middleware.OperationsTotal.WithLabelValues("download", "success").Inc()
}
