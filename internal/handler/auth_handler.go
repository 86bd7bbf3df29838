package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/cabinet-api/internal/domain/entity"
	"github.com/yourusername/cabinet-api/internal/middleware"
	"github.com/yourusername/cabinet-api/internal/pkg/validator"
	"github.com/yourusername/cabinet-api/internal/service"
	"github.com/yourusername/cabinet-api/pkg/auth"
)

// AuthHandler обрабатывает регистрацию, вход, выход и смену пароля
type AuthHandler struct {
	authService    *service.AuthService
	sessionService *service.SessionService
	jwtService     *auth.JWTService
	cookieSecure   bool
}

// NewAuthHandler создает обработчик аутентификации
func NewAuthHandler(
	authService *service.AuthService,
	sessionService *service.SessionService,
	jwtService *auth.JWTService,
	cookieSecure bool,
) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		sessionService: sessionService,
		jwtService:     jwtService,
		cookieSecure:   cookieSecure,
	}
}

// Register обрабатывает регистрацию.
// Email должен быть предварительно подтверждён кодом в сценарии signup.
func (h *AuthHandler) Register(c *gin.Context) {
	sid := middleware.FlowSIDFromContext(c)

	user, err := h.authService.Register(
		c.Request.Context(), sid,
		c.PostForm("username"),
		c.PostForm("email"),
		c.PostForm("password1"),
		c.PostForm("password2"),
	)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	if err := h.startSession(c, user); err != nil {
		log.Printf("[AuthHandler] Не удалось создать сессию после регистрации пользователя ID=%d: %v", user.ID, err)
		jsonError(c, "Внутренняя ошибка сервера.", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "user": userPayload(user)})
}

// Login обрабатывает вход
func (h *AuthHandler) Login(c *gin.Context) {
	user, err := h.authService.Login(c.Request.Context(), c.PostForm("email"), c.PostForm("password"))
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	if err := h.startSession(c, user); err != nil {
		log.Printf("[AuthHandler] Не удалось создать сессию после входа пользователя ID=%d: %v", user.ID, err)
		jsonError(c, "Внутренняя ошибка сервера.", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": userPayload(user)})
}

// Logout завершает все активные сессии пользователя
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID != 0 {
		if err := h.sessionService.EndAll(userID); err != nil {
			log.Printf("[AuthHandler] Ошибка завершения сессий пользователя ID=%d: %v", userID, err)
		}
	}

	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ChangePassword меняет пароль авторизованного пользователя
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	err := h.authService.ChangePassword(
		c.Request.Context(), userID,
		c.PostForm("current_password"),
		c.PostForm("new_password1"),
		c.PostForm("new_password2"),
	)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "message": service.MsgPasswordChangedProfile})
}

// startSession создаёт/продлевает UserSession и выставляет cookie с токеном
func (h *AuthHandler) startSession(c *gin.Context, user *entity.User) error {
	sessionKey := uuid.NewString()
	session, err := h.sessionService.Touch(user.ID, sessionKey, true)
	if err != nil {
		return err
	}

	token, err := h.jwtService.GenerateToken(user.ID, session.SessionKey)
	if err != nil {
		return err
	}

	maxAge := int(h.sessionService.Lifetime().Seconds())
	c.SetCookie(middleware.AccessTokenCookie, token, maxAge, "/", "", h.cookieSecure, true)
	return nil
}

func userPayload(user *entity.User) gin.H {
	return gin.H{
		"id":           user.ID,
		"username":     user.Username,
		"masked_email": service.MaskEmail(user.Email),
	}
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	var validationErr *validator.ValidationError

	switch {
	case errors.As(err, &validationErr):
		jsonError(c, validationErr.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrInvalidCredentials):
		jsonError(c, service.MsgInvalidCredentials, http.StatusBadRequest)
	case errors.Is(err, service.ErrEmailExists):
		jsonError(c, service.MsgEmailAlreadyExists, http.StatusBadRequest)
	case errors.Is(err, service.ErrEmailNotVerified):
		jsonError(c, service.MsgConfirmEmailFirst, http.StatusBadRequest)
	case errors.Is(err, service.ErrCurrentPasswordWrong):
		jsonError(c, service.MsgCurrentPasswordWrong, http.StatusBadRequest)
	default:
		log.Printf("[AuthHandler] Внутренняя ошибка: %v", err)
		jsonError(c, "Внутренняя ошибка сервера.", http.StatusInternalServerError)
	}
}
