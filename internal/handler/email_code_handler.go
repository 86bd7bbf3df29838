package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/cabinet-api/internal/middleware"
	"github.com/yourusername/cabinet-api/internal/pkg/validator"
	"github.com/yourusername/cabinet-api/internal/service"
	"github.com/yourusername/cabinet-api/internal/service/emailflow"
)

// EmailCodeHandler обрабатывает трёхшаговые сценарии подтверждения email:
// send -> verify -> confirm. Сценарий приходит в пути запроса.
type EmailCodeHandler struct {
	emailCodeService *service.EmailCodeService
}

// NewEmailCodeHandler создает обработчик сценариев подтверждения email
func NewEmailCodeHandler(emailCodeService *service.EmailCodeService) *EmailCodeHandler {
	return &EmailCodeHandler{emailCodeService: emailCodeService}
}

// SendCode обрабатывает шаг 1: отправку кода на email
func (h *EmailCodeHandler) SendCode(c *gin.Context) {
	scenario := service.Scenario(c.Param("scenario"))
	sid := middleware.FlowSIDFromContext(c)
	userID := middleware.UserIDFromContext(c)
	email := c.PostForm("email")

	result, err := h.emailCodeService.SendCode(c.Request.Context(), sid, userID, scenario, email)
	if err != nil {
		h.handleSendError(c, scenario, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":               true,
		"cooldown_seconds": result.CooldownSeconds,
		"attempts":         result.Attempts,
	})
}

// VerifyCode обрабатывает шаг 2: проверку кода
func (h *EmailCodeHandler) VerifyCode(c *gin.Context) {
	scenario := service.Scenario(c.Param("scenario"))
	sid := middleware.FlowSIDFromContext(c)
	userID := middleware.UserIDFromContext(c)
	code := c.PostForm("code")

	if err := h.emailCodeService.VerifyCode(c.Request.Context(), sid, userID, scenario, code); err != nil {
		h.handleVerifyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ConfirmCode обрабатывает шаг 3: финальное действие сценария.
// password_reset принимает password1/password2, change_email принимает
// current_password. У signup отдельного confirm-шага нет.
func (h *EmailCodeHandler) ConfirmCode(c *gin.Context) {
	scenario := service.Scenario(c.Param("scenario"))
	sid := middleware.FlowSIDFromContext(c)
	userID := middleware.UserIDFromContext(c)

	switch scenario {
	case service.ScenarioPasswordReset:
		err := h.emailCodeService.ConfirmPasswordReset(
			c.Request.Context(), sid,
			c.PostForm("password1"), c.PostForm("password2"),
		)
		if err != nil {
			h.handleConfirmError(c, scenario, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})

	case service.ScenarioChangeEmail:
		result, err := h.emailCodeService.ConfirmChangeEmail(
			c.Request.Context(), sid, userID,
			c.PostForm("current_password"),
		)
		if err != nil {
			h.handleConfirmError(c, scenario, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"ok":           true,
			"email":        result.Email,
			"masked_email": result.MaskedEmail,
		})

	case service.ScenarioSignup:
		jsonError(c, service.MsgConfirmNotNeeded, http.StatusBadRequest)

	default:
		jsonError(c, service.MsgUnknownConfirm, http.StatusBadRequest)
	}
}

// jsonError - унифицированный формат ответа-ошибки
func jsonError(c *gin.Context, message string, status int) {
	c.JSON(status, gin.H{"ok": false, "error": message})
}

func (h *EmailCodeHandler) handleSendError(c *gin.Context, scenario service.Scenario, err error) {
	var cooldownErr *emailflow.CooldownError
	var validationErr *validator.ValidationError

	switch {
	case errors.As(err, &cooldownErr):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"ok":                false,
			"code":              "cooldown",
			"error":             fmt.Sprintf(service.MsgCooldownSeconds, cooldownErr.RemainingSeconds),
			"remaining_seconds": cooldownErr.RemainingSeconds,
		})

	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "code": "email_error", "error": validationErr.Error()})

	case errors.Is(err, service.ErrEmailNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "code": "email_error", "error": service.MsgEmailNotFound})

	case errors.Is(err, service.ErrEmailExists):
		if scenario == service.ScenarioChangeEmail {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "code": "email_exists", "error": service.MsgEmailTakenByOther})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "code": "email_error", "error": service.MsgEmailAlreadyExists})
		}

	case errors.Is(err, service.ErrNeedAuth):
		jsonError(c, service.MsgNeedAuth, http.StatusForbidden)

	case errors.Is(err, service.ErrUnknownScenario):
		jsonError(c, service.MsgUnknownSend, http.StatusBadRequest)

	default:
		log.Printf("[EmailCodeHandler] Ошибка отправки кода (%s): %v", scenario, err)
		jsonError(c, "Внутренняя ошибка сервера.", http.StatusInternalServerError)
	}
}

func (h *EmailCodeHandler) handleVerifyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, emailflow.ErrSessionExpired):
		jsonError(c, service.MsgSessionConfirmExpired, http.StatusBadRequest)
	case errors.Is(err, emailflow.ErrCodeExpired):
		jsonError(c, service.MsgCodeExpired, http.StatusBadRequest)
	case errors.Is(err, emailflow.ErrCodeMismatch):
		jsonError(c, service.MsgCodeMismatch, http.StatusBadRequest)
	case errors.Is(err, service.ErrNeedAuth):
		jsonError(c, service.MsgNeedAuth, http.StatusForbidden)
	case errors.Is(err, service.ErrUnknownScenario):
		jsonError(c, service.MsgUnknownConfirm, http.StatusBadRequest)
	default:
		log.Printf("[EmailCodeHandler] Ошибка проверки кода: %v", err)
		jsonError(c, "Внутренняя ошибка сервера.", http.StatusInternalServerError)
	}
}

func (h *EmailCodeHandler) handleConfirmError(c *gin.Context, scenario service.Scenario, err error) {
	sessionInvalidMsg := service.MsgSessionRecoveryExpired
	if scenario == service.ScenarioChangeEmail {
		sessionInvalidMsg = service.MsgSessionEmailExpired
	}

	var validationErr *validator.ValidationError

	switch {
	case errors.As(err, &validationErr):
		jsonError(c, validationErr.Error(), http.StatusBadRequest)
	case errors.Is(err, emailflow.ErrSessionExpired):
		jsonError(c, sessionInvalidMsg, http.StatusBadRequest)
	case errors.Is(err, emailflow.ErrCodeExpired):
		jsonError(c, service.MsgCodeExpired, http.StatusBadRequest)
	case errors.Is(err, service.ErrNeedAuth):
		jsonError(c, service.MsgNeedAuth, http.StatusForbidden)
	case errors.Is(err, service.ErrCurrentPasswordWrong):
		jsonError(c, service.MsgCurrentPasswordWrong, http.StatusBadRequest)
	default:
		log.Printf("[EmailCodeHandler] Ошибка подтверждения (%s): %v", scenario, err)
		jsonError(c, "Внутренняя ошибка сервера.", http.StatusInternalServerError)
	}
}
