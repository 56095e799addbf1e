package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteError_Format(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusConflict, CodeConflict, "Este email já foi cadastrado.")

	if rec.Code != http.StatusConflict {
		t.Errorf("статус: ожидалось 409, получено %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: ожидалось application/json, получено %q", ct)
	}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("ошибка разбора JSON: %v", err)
	}
	if body.Error.Code != CodeConflict {
		t.Errorf("code: ожидалось %q, получено %q", CodeConflict, body.Error.Code)
	}
	if body.Error.Message != "Este email já foi cadastrado." {
		t.Errorf("message: неожиданное значение %q", body.Error.Message)
	}
}

func TestConstructors_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{"validation", func(w http.ResponseWriter) { ValidationError(w, "m") }, 400, CodeValidationError},
		{"conflict", func(w http.ResponseWriter) { Conflict(w, "m") }, 409, CodeConflict},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "m") }, 401, CodeUnauthorized},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "m") }, 404, CodeNotFound},
		{"file too large", func(w http.ResponseWriter) { FileTooLarge(w, "m") }, 413, CodeFileTooLarge},
		{"configuration", func(w http.ResponseWriter) { ConfigurationError(w, "m") }, 500, CodeConfigurationError},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "m") }, 500, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			if rec.Code != tt.wantStatus {
				t.Errorf("статус: ожидалось %d, получено %d", tt.wantStatus, rec.Code)
			}

			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("ошибка разбора JSON: %v", err)
			}
			if body.Error.Code != tt.wantCode {
				t.Errorf("code: ожидалось %q, получено %q", tt.wantCode, body.Error.Code)
			}
		})
	}
}
