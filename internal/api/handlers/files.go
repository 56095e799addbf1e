// files.go — выдача файлов резюме.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arturkryukov/talentos/intake-module/internal/service"
)

// FilesHandler — обработчик endpoints файлов резюме.
type FilesHandler struct {
	downloadSvc *service.DownloadService
}

// NewFilesHandler создаёт обработчик endpoints файлов резюме.
func NewFilesHandler(downloadSvc *service.DownloadService) *FilesHandler {
	return &FilesHandler{downloadSvc: downloadSvc}
}

// Download обрабатывает GET /download/{filename}.
// Отдаёт файл резюме как вложение, строго в пределах директории загрузок.
func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	h.downloadSvc.Serve(w, r, filename)
}
