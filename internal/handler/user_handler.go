package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/cabinet-api/internal/middleware"
	"github.com/yourusername/cabinet-api/internal/pkg/validator"
	"github.com/yourusername/cabinet-api/internal/service"
)

// UserHandler обрабатывает запросы профиля
type UserHandler struct {
	userService    *service.UserService
	sessionService *service.SessionService
}

// NewUserHandler создает обработчик профиля
func NewUserHandler(userService *service.UserService, sessionService *service.SessionService) *UserHandler {
	return &UserHandler{
		userService:    userService,
		sessionService: sessionService,
	}
}

// Me возвращает профиль текущего пользователя
func (h *UserHandler) Me(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	profile, err := h.userService.Profile(userID)
	if err != nil {
		log.Printf("[UserHandler] Ошибка получения профиля пользователя ID=%d: %v", userID, err)
		jsonError(c, "Внутренняя ошибка сервера.", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": profile})
}

// UpdateUsername меняет имя пользователя
func (h *UserHandler) UpdateUsername(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	username, err := h.userService.UpdateUsername(userID, c.PostForm("username"))
	if err != nil {
		var validationErr *validator.ValidationError
		if errors.As(err, &validationErr) {
			jsonError(c, validationErr.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("[UserHandler] Ошибка смены имени пользователя ID=%d: %v", userID, err)
		jsonError(c, "Внутренняя ошибка сервера.", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "username": username, "message": service.MsgUsernameChanged})
}

// Sessions возвращает историю сессий текущего пользователя
func (h *UserHandler) Sessions(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	sessions, err := h.sessionService.History(userID, 100)
	if err != nil {
		log.Printf("[UserHandler] Ошибка получения сессий пользователя ID=%d: %v", userID, err)
		jsonError(c, "Внутренняя ошибка сервера.", http.StatusInternalServerError)
		return
	}

	items := make([]gin.H, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, gin.H{
			"id":           session.ID,
			"start_time":   session.StartTime.Format("2006-01-02 15:04:05"),
			"end_time":     session.EndTime.Format("2006-01-02 15:04:05"),
			"duration_sec": session.DurationSec,
			"is_active":    session.IsActive,
		})
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items})
}
