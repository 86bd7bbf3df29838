package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/cabinet-api/internal/domain/repository"
	"github.com/yourusername/cabinet-api/pkg/auth"
)

// AccessTokenCookie - имя cookie с токеном сессии
const AccessTokenCookie = "access_token"

// Ключи контекста Gin
const (
	ContextUserID     = "user_id"
	ContextSessionKey = "session_key"
)

// AuthMiddleware обеспечивает аутентификацию для защищенных маршрутов
type AuthMiddleware struct {
	jwtService *auth.JWTService
	userRepo   repository.UserRepository
}

// NewAuthMiddleware создает новый middleware аутентификации
func NewAuthMiddleware(jwtService *auth.JWTService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		userRepo:   userRepo,
	}
}

// tokenFromRequest достаёт токен из cookie, с fallback на заголовок Bearer
func tokenFromRequest(c *gin.Context) (string, bool) {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token, true
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth проверяет, аутентифицирован ли пользователь
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := tokenFromRequest(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Требуется авторизация.", "error_type": "token_missing"})
			c.Abort()
			return
		}

		claims, err := m.jwtService.ParseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Требуется авторизация.", "error_type": "token_invalid"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextSessionKey, claims.SessionKey)
		c.Next()
	}
}

// OptionalAuth заполняет контекст, если валидный токен есть, но не требует его.
// Нужен эндпоинтам отправки кода: сценарий change_email требует авторизацию,
// остальные работают анонимно.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := tokenFromRequest(c); ok {
			if claims, err := m.jwtService.ParseToken(token); err == nil {
				c.Set(ContextUserID, claims.UserID)
				c.Set(ContextSessionKey, claims.SessionKey)
			}
		}
		c.Next()
	}
}

// AdminOnly пропускает только сотрудников (is_staff). Применяется ПОСЛЕ RequireAuth.
func (m *AuthMiddleware) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(ContextUserID)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Требуется авторизация."})
			c.Abort()
			return
		}

		user, err := m.userRepo.GetByID(userID.(uint))
		if err != nil || !user.IsStaff {
			c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "Недостаточно прав."})
			c.Abort()
			return
		}

		c.Next()
	}
}

// UserIDFromContext возвращает ID пользователя из контекста, 0 для анонима
func UserIDFromContext(c *gin.Context) uint {
	if value, exists := c.Get(ContextUserID); exists {
		if id, ok := value.(uint); ok {
			return id
		}
	}
	return 0
}

// SessionKeyFromContext возвращает ключ сессии из контекста
func SessionKeyFromContext(c *gin.Context) string {
	if value, exists := c.Get(ContextSessionKey); exists {
		if key, ok := value.(string); ok {
			return key
		}
	}
	return ""
}
