package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/cabinet-api/internal/middleware"
	apperrors "github.com/yourusername/cabinet-api/internal/pkg/errors"
	"github.com/yourusername/cabinet-api/internal/pkg/validator"
	"github.com/yourusername/cabinet-api/internal/service"
	"github.com/yourusername/cabinet-api/pkg/wbapi"
)

// ContextCabinetID - ключ контекста Gin с id кабинета из URL
const ContextCabinetID = "cabinetID"

// CabinetHandler обрабатывает запросы по кабинетам WB
type CabinetHandler struct {
	cabinetService *service.CabinetService
}

// NewCabinetHandler создает обработчик кабинетов WB
func NewCabinetHandler(cabinetService *service.CabinetService) *CabinetHandler {
	return &CabinetHandler{cabinetService: cabinetService}
}

// List возвращает все кабинеты текущего пользователя
func (h *CabinetHandler) List(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	items, err := h.cabinetService.List(userID)
	if err != nil {
		log.Printf("[CabinetHandler] Ошибка получения кабинетов пользователя ID=%d: %v", userID, err)
		jsonError(c, "Внутренняя ошибка сервера.", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items})
}

// Add добавляет кабинет по API-ключу
func (h *CabinetHandler) Add(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	item, err := h.cabinetService.Add(
		c.Request.Context(), userID,
		c.PostForm("api_key"),
		c.PostForm("api_key_name"),
	)
	if err != nil {
		h.handleCabinetError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "item": item})
}

// Delete удаляет кабинет
func (h *CabinetHandler) Delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	cabinetID := c.GetUint(ContextCabinetID)

	if err := h.cabinetService.Delete(c.Request.Context(), userID, cabinetID); err != nil {
		h.handleCabinetError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Check проверяет API-ключ кабинета через WB.
// Форма sync=1 сразу применяет изменения из WB.
func (h *CabinetHandler) Check(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	cabinetID := c.GetUint(ContextCabinetID)
	sync := isTruthy(c.PostForm("sync"))

	result, err := h.cabinetService.Check(c.Request.Context(), userID, cabinetID, sync)
	if err != nil {
		h.handleCabinetError(c, err)
		return
	}

	payload := gin.H{
		"ok":          true,
		"message":     result.Message,
		"has_changes": result.HasChanges,
		"item":        result.Item,
	}
	if result.HasChanges {
		payload["new_cabinet_name"] = result.NewCabinetName
		payload["new_cabinet_created_at"] = result.NewCabinetCreatedAt
	}
	c.JSON(http.StatusOK, payload)
}

// Update редактирует кабинет
func (h *CabinetHandler) Update(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	cabinetID := c.GetUint(ContextCabinetID)

	item, err := h.cabinetService.Update(c.Request.Context(), userID, cabinetID, service.CabinetUpdateParams{
		APIKey:             c.PostForm("api_key"),
		APIKeyName:         c.PostForm("api_key_name"),
		CabinetName:        c.PostForm("cabinet_name"),
		CabinetCreatedDate: c.PostForm("cabinet_created_date"),
	})
	if err != nil {
		h.handleCabinetError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "item": item, "message": service.MsgCabinetUpdated})
}

func (h *CabinetHandler) handleCabinetError(c *gin.Context, err error) {
	var validationErr *validator.ValidationError
	var cabinetErr *wbapi.CabinetError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"ok":     false,
			"error":  validationErr.Error(),
			"errors": validationErr.Violations,
		})
	case errors.As(err, &cabinetErr):
		jsonError(c, cabinetErr.Message, http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrNotFound):
		jsonError(c, service.MsgCabinetIncorrectID, http.StatusNotFound)
	default:
		log.Printf("[CabinetHandler] Внутренняя ошибка: %v", err)
		jsonError(c, "Внутренняя ошибка сервера.", http.StatusInternalServerError)
	}
}

// isTruthy трактует значения формы как флаг
func isTruthy(value string) bool {
	switch value {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
