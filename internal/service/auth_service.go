package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/yourusername/cabinet-api/internal/domain/entity"
	"github.com/yourusername/cabinet-api/internal/domain/repository"
	apperrors "github.com/yourusername/cabinet-api/internal/pkg/errors"
	"github.com/yourusername/cabinet-api/internal/pkg/validator"
)

// AuthService отвечает за регистрацию, вход и смену пароля
type AuthService struct {
	userRepo         repository.UserRepository
	emailCodeService *EmailCodeService
	allowedDomains   []string
}

// NewAuthService создает сервис аутентификации
func NewAuthService(
	userRepo repository.UserRepository,
	emailCodeService *EmailCodeService,
	allowedDomains []string,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		emailCodeService: emailCodeService,
		allowedDomains:   allowedDomains,
	}
}

// Register создает пользователя. Email должен быть предварительно
// подтверждён кодом в сценарии signup, причём именно тот адрес,
// который пришёл в форме. При несовпадении состояние flow не трогаем:
// пользователь мог просто опечататься в форме.
func (s *AuthService) Register(ctx context.Context, sid, username, emailRaw, password1, password2 string) (*entity.User, error) {
	username, err := validator.ValidateUsername(username)
	if err != nil {
		return nil, err
	}

	email, err := validator.NormalizeEmail(emailRaw)
	if err != nil {
		return nil, err
	}
	if err := validator.CheckAllowedDomain(email, s.allowedDomains); err != nil {
		return nil, err
	}

	if password1 == "" || password2 == "" {
		return nil, &validator.ValidationError{Violations: []string{MsgConfirmNewPassword}}
	}
	if password1 != password2 {
		return nil, &validator.ValidationError{Violations: []string{MsgPasswordsMismatch}}
	}
	password, err := validator.ValidatePassword(password1)
	if err != nil {
		return nil, err
	}

	taken, err := s.userRepo.EmailTakenByOther(email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailExists
	}

	verifiedEmail, err := s.emailCodeService.VerifiedEmail(sid, ScenarioSignup)
	if err != nil || !strings.EqualFold(verifiedEmail, email) {
		return nil, ErrEmailNotVerified
	}

	user := &entity.User{
		Username:   username,
		Email:      email,
		Password:   password,
		IsActive:   true,
		DateJoined: time.Now(),
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	if err := s.emailCodeService.ClearFlow(sid, ScenarioSignup); err != nil {
		log.Printf("[AuthService] Не удалось сбросить flow регистрации: %v", err)
	}

	log.Printf("[AuthService] Зарегистрирован пользователь ID=%d", user.ID)
	return user, nil
}

// Login проверяет учётные данные. Какая именно часть неверна, не раскрываем.
func (s *AuthService) Login(ctx context.Context, emailRaw, password string) (*entity.User, error) {
	email, err := validator.NormalizeEmail(emailRaw)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ChangePassword меняет пароль авторизованного пользователя
// после проверки текущего
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword1, newPassword2 string) error {
	if currentPassword == "" {
		return &validator.ValidationError{Violations: []string{MsgEnterCurrentPassword}}
	}
	if newPassword1 == "" || newPassword2 == "" {
		return &validator.ValidationError{Violations: []string{MsgConfirmNewPassword}}
	}
	if newPassword1 != newPassword2 {
		return &validator.ValidationError{Violations: []string{MsgPasswordsMismatch}}
	}
	password, err := validator.ValidatePassword(newPassword1)
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(currentPassword) {
		return ErrCurrentPasswordWrong
	}

	return s.userRepo.UpdatePassword(userID, password)
}
