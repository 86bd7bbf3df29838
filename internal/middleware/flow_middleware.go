package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FlowSIDCookie - имя cookie анонимной flow-сессии.
// Flow подтверждения email должен работать и до авторизации,
// поэтому привязывается к собственному идентификатору, а не к пользователю.
const FlowSIDCookie = "flow_sid"

// ContextFlowSID - ключ контекста Gin с идентификатором flow-сессии
const ContextFlowSID = "flow_sid"

// Время жизни cookie flow-сессии в секундах
const flowSIDMaxAge = 24 * 60 * 60

// EnsureFlowSID гарантирует, что у запроса есть идентификатор flow-сессии.
// Отсутствующий или пустой cookie заменяется новым uuid.
func EnsureFlowSID(cookieSecure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(FlowSIDCookie)
		if err != nil || sid == "" {
			sid = uuid.NewString()
			c.SetCookie(FlowSIDCookie, sid, flowSIDMaxAge, "/", "", cookieSecure, true)
		}
		c.Set(ContextFlowSID, sid)
		c.Next()
	}
}

// FlowSIDFromContext возвращает идентификатор flow-сессии из контекста
func FlowSIDFromContext(c *gin.Context) string {
	if value, exists := c.Get(ContextFlowSID); exists {
		if sid, ok := value.(string); ok {
			return sid
		}
	}
	return ""
}
