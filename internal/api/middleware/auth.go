package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"

	"riskmonitor/pkg/crypto"
)

// Credentials для защиты debug endpoints.
// DEBUG_PASSWORD_HASH - bcrypt хэш пароля (генерируется заранее),
// сам пароль в окружении сервиса не хранится.
var (
	debugUsername     = os.Getenv("DEBUG_USERNAME")
	debugPasswordHash = os.Getenv("DEBUG_PASSWORD_HASH")
)

// DebugAuth - middleware для защиты debug/pprof endpoints
//
// Назначение:
// Закрывает /debug/pprof/* HTTP Basic аутентификацией.
// Пароль сверяется с bcrypt хэшем - constant-time по построению.
//
// Конфигурация:
// - DEBUG_USERNAME: имя пользователя
// - DEBUG_PASSWORD_HASH: bcrypt хэш пароля
// - Если переменные не установлены, в development доступ открыт,
//   в остальных окружениях endpoints недоступны (403)
func DebugAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if debugUsername == "" || debugPasswordHash == "" {
			if env := os.Getenv("ENV"); env == "development" || env == "" {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Debug endpoints disabled. Set DEBUG_USERNAME and DEBUG_PASSWORD_HASH.", http.StatusForbidden)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="Debug endpoints"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(debugUsername)) == 1
		passMatch := crypto.CheckPasswordMatch(pass, debugPasswordHash)

		if !userMatch || !passMatch {
			w.Header().Set("WWW-Authenticate", `Basic realm="Debug endpoints"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
