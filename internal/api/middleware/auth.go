// auth.go — middleware bearer-аутентификации защищённых endpoints.
// Секрет — статический токен из конфигурации (IM_API_TOKEN),
// сравнение с заголовком Authorization: Bearer <secret> строго на равенство.
// Не настроенный секрет означает fail closed: защищённые endpoints
// отвечают 500 всем, включая запросы с «правильным» токеном.
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/arturkryukov/talentos/intake-module/internal/api/errors"
)

// TokenAuth — middleware статической bearer-аутентификации.
type TokenAuth struct {
	token  string
	logger *slog.Logger
}

// NewTokenAuth создаёт middleware с указанным секретом.
// Пустой секрет допустим: middleware перейдёт в режим fail closed.
func NewTokenAuth(token string, logger *slog.Logger) *TokenAuth {
	return &TokenAuth{
		token:  token,
		logger: logger.With(slog.String("component", "token_auth")),
	}
}

// Middleware возвращает HTTP middleware bearer-аутентификации.
// Порядок проверок: сначала конфигурация секрета (500 при отсутствии),
// затем заголовок Authorization (401 при отсутствии или несовпадении).
func (a *TokenAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a.token == "" {
				a.logger.Error("API-токен не сконфигурирован, доступ закрыт",
					slog.String("path", r.URL.Path),
				)
				apierrors.ConfigurationError(w, "Сервис неправильно сконфигурирован")
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apierrors.Unauthorized(w, "Отсутствует заголовок Authorization")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				apierrors.Unauthorized(w, "Неверный формат Authorization: ожидается Bearer <token>")
				return
			}

			// Сравнение за постоянное время, чтобы не раскрывать
			// длину совпавшего префикса по таймингу.
			if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(a.token)) != 1 {
				a.logger.Debug("Неверный bearer token",
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("path", r.URL.Path),
				)
				apierrors.Unauthorized(w, "Невалидный токен")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
