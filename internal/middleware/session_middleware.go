package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/cabinet-api/internal/pkg/errors"
	"github.com/yourusername/cabinet-api/internal/service"
)

// SessionMiddleware проверяет пользовательскую сессию на каждом
// авторизованном запросе.
//
// Логика:
//   - анонимные запросы не трогаем;
//   - для авторизованных пробуем продлить сессию (create_if_missing=false);
//   - если активной сессии нет, чистим cookie и отдаём 401:
//     пользователь обязан войти заново;
//   - часть путей пропускаем (login, signup, logout), чтобы не ловить
//     странные кейсы на границах жизни сессии.
type SessionMiddleware struct {
	sessionService *service.SessionService
	skipPaths      []string
	cookieSecure   bool
}

// NewSessionMiddleware создает middleware продления сессий
func NewSessionMiddleware(sessionService *service.SessionService, skipPaths []string, cookieSecure bool) *SessionMiddleware {
	if len(skipPaths) == 0 {
		skipPaths = []string{"/api/auth/login", "/api/auth/register", "/api/auth/logout"}
	}
	return &SessionMiddleware{
		sessionService: sessionService,
		skipPaths:      skipPaths,
		cookieSecure:   cookieSecure,
	}
}

// Touch возвращает Gin middleware. Применяется ПОСЛЕ RequireAuth/OptionalAuth.
func (m *SessionMiddleware) Touch() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserIDFromContext(c)
		if userID == 0 {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		for _, skip := range m.skipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		_, err := m.sessionService.Touch(userID, SessionKeyFromContext(c), false)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				// Сессия истекла: принудительный logout
				c.SetCookie(AccessTokenCookie, "", -1, "/", "", m.cookieSecure, true)
				c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Требуется авторизация.", "error_type": "session_expired"})
				c.Abort()
				return
			}
			log.Printf("[SessionMiddleware] Ошибка продления сессии пользователя ID=%d: %v", userID, err)
		}

		c.Next()
	}
}
