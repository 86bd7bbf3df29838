package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/cabinet-api/internal/domain/entity"
	apperrors "github.com/yourusername/cabinet-api/internal/pkg/errors"
	"github.com/yourusername/cabinet-api/internal/pkg/validator"
	"github.com/yourusername/cabinet-api/internal/service/emailflow"
)

// createTestEmailCodeService собирает EmailCodeService на движке с хранилищем
// в памяти. Возвращает также движок, чтобы тест мог подготовить состояние flow.
func createTestEmailCodeService(userRepo *MockUserRepository, resetRepo *MockPasswordResetRepository) (*EmailCodeService, *emailflow.Engine, *capturingEmailService) {
	engine := emailflow.NewEngine(newMemFlowStore(), nil, nil)
	emails := &capturingEmailService{}
	svc := NewEmailCodeService(engine, userRepo, resetRepo, emails, nil)
	return svc, engine, emails
}

// verifySignupEmail проводит email через send+verify в сценарии signup
func verifySignupEmail(t *testing.T, engine *emailflow.Engine, sid, email string) {
	t.Helper()
	result, err := engine.RequestCode(sid, emailflow.PrefixSignup, email)
	require.NoError(t, err, "Выдача кода не должна падать")
	require.NoError(t, engine.VerifyCode(sid, emailflow.PrefixSignup, result.Code),
		"Проверка только что выданного кода должна проходить")
}

func TestAuthService_Register_Success(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	emailCodeService, engine, _ := createTestEmailCodeService(mockUserRepo, new(MockPasswordResetRepository))

	verifySignupEmail(t, engine, "sid-1", "new@example.com")

	mockUserRepo.On("EmailTakenByOther", "new@example.com", uint(0)).Return(false, nil)
	mockUserRepo.On("Create", mock.AnythingOfType("*entity.User")).Return(nil)

	authService := NewAuthService(mockUserRepo, emailCodeService, nil)

	user, err := authService.Register(context.Background(), "sid-1", "newuser", "New@Example.com", "secret1!", "secret1!")

	require.NoError(t, err, "Регистрация должна быть успешной")
	assert.Equal(t, "newuser", user.Username)
	assert.Equal(t, "new@example.com", user.Email, "Email должен быть нормализован")
	assert.True(t, user.IsActive, "Новый пользователь должен быть активен")
	mockUserRepo.AssertExpectations(t)

	// Состояние flow должно быть сброшено после регистрации
	_, err = emailCodeService.VerifiedEmail("sid-1", ScenarioSignup)
	assert.ErrorIs(t, err, emailflow.ErrSessionExpired, "Flow регистрации должен быть сброшен")
}

func TestAuthService_Register_EmailNotVerified(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	emailCodeService, _, _ := createTestEmailCodeService(mockUserRepo, new(MockPasswordResetRepository))

	mockUserRepo.On("EmailTakenByOther", "new@example.com", uint(0)).Return(false, nil)

	authService := NewAuthService(mockUserRepo, emailCodeService, nil)

	user, err := authService.Register(context.Background(), "sid-1", "newuser", "new@example.com", "secret1!", "secret1!")

	assert.ErrorIs(t, err, ErrEmailNotVerified, "Без подтверждения email регистрация запрещена")
	assert.Nil(t, user)
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Register_VerifiedDifferentEmail(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	emailCodeService, engine, _ := createTestEmailCodeService(mockUserRepo, new(MockPasswordResetRepository))

	// Подтверждён один адрес, в форме пришёл другой
	verifySignupEmail(t, engine, "sid-1", "verified@example.com")

	mockUserRepo.On("EmailTakenByOther", "other@example.com", uint(0)).Return(false, nil)

	authService := NewAuthService(mockUserRepo, emailCodeService, nil)

	user, err := authService.Register(context.Background(), "sid-1", "newuser", "other@example.com", "secret1!", "secret1!")

	assert.ErrorIs(t, err, ErrEmailNotVerified)
	assert.Nil(t, user)

	// Состояние flow при несовпадении не сбрасывается
	email, err := emailCodeService.VerifiedEmail("sid-1", ScenarioSignup)
	require.NoError(t, err)
	assert.Equal(t, "verified@example.com", email, "Подтверждённый адрес должен сохраниться")
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	emailCodeService, _, _ := createTestEmailCodeService(mockUserRepo, new(MockPasswordResetRepository))

	mockUserRepo.On("EmailTakenByOther", "taken@example.com", uint(0)).Return(true, nil)

	authService := NewAuthService(mockUserRepo, emailCodeService, nil)

	user, err := authService.Register(context.Background(), "sid-1", "newuser", "taken@example.com", "secret1!", "secret1!")

	assert.ErrorIs(t, err, ErrEmailExists)
	assert.Nil(t, user)
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Register_PasswordViolationsCollected(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	emailCodeService, _, _ := createTestEmailCodeService(mockUserRepo, new(MockPasswordResetRepository))

	authService := NewAuthService(mockUserRepo, emailCodeService, nil)

	// "ab1" - короткий и без спецсимвола: обе претензии должны прийти вместе
	user, err := authService.Register(context.Background(), "sid-1", "newuser", "new@example.com", "ab1", "ab1")

	require.Error(t, err)
	assert.Nil(t, user)

	var validationErr *validator.ValidationError
	require.ErrorAs(t, err, &validationErr, "Ожидается ошибка валидации")
	assert.Len(t, validationErr.Violations, 2, "Все нарушения должны собираться вместе")
}

func TestAuthService_Register_PasswordsMismatch(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	emailCodeService, _, _ := createTestEmailCodeService(mockUserRepo, new(MockPasswordResetRepository))

	authService := NewAuthService(mockUserRepo, emailCodeService, nil)

	user, err := authService.Register(context.Background(), "sid-1", "newuser", "new@example.com", "secret1!", "secret2!")

	require.Error(t, err)
	assert.Nil(t, user)
	assert.Contains(t, err.Error(), MsgPasswordsMismatch)
}

func TestAuthService_Login_ValidCredentials(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	plainPassword := "correct1!"
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)

	existingUser := &entity.User{
		ID:       1,
		Username: "testuser",
		Email:    "test@example.com",
		Password: string(hashedPassword),
		IsActive: true,
	}
	mockUserRepo.On("GetByEmail", "test@example.com").Return(existingUser, nil)

	authService := NewAuthService(mockUserRepo, nil, nil)

	user, err := authService.Login(context.Background(), "Test@Example.com", plainPassword)

	require.NoError(t, err, "Аутентификация должна быть успешной")
	assert.Equal(t, uint(1), user.ID)
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("correct1!"), bcrypt.DefaultCost)

	existingUser := &entity.User{
		ID:       1,
		Email:    "test@example.com",
		Password: string(hashedPassword),
		IsActive: true,
	}
	mockUserRepo.On("GetByEmail", "test@example.com").Return(existingUser, nil)

	authService := NewAuthService(mockUserRepo, nil, nil)

	user, err := authService.Login(context.Background(), "test@example.com", "wrong1!")

	assert.ErrorIs(t, err, ErrInvalidCredentials, "Неверный пароль не должен раскрываться отдельно")
	assert.Nil(t, user)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockUserRepo.On("GetByEmail", "nobody@example.com").Return(nil, apperrors.ErrNotFound)

	authService := NewAuthService(mockUserRepo, nil, nil)

	user, err := authService.Login(context.Background(), "nobody@example.com", "whatever1!")

	assert.ErrorIs(t, err, ErrInvalidCredentials, "Отсутствие пользователя не должно раскрываться отдельно")
	assert.Nil(t, user)
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("correct1!"), bcrypt.DefaultCost)

	existingUser := &entity.User{
		ID:       1,
		Email:    "test@example.com",
		Password: string(hashedPassword),
		IsActive: false,
	}
	mockUserRepo.On("GetByEmail", "test@example.com").Return(existingUser, nil)

	authService := NewAuthService(mockUserRepo, nil, nil)

	user, err := authService.Login(context.Background(), "test@example.com", "correct1!")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, user)
}

func TestAuthService_ChangePassword_Success(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("current1!"), bcrypt.DefaultCost)

	existingUser := &entity.User{ID: 1, Password: string(hashedPassword), IsActive: true}
	mockUserRepo.On("GetByID", uint(1)).Return(existingUser, nil)
	mockUserRepo.On("UpdatePassword", uint(1), "newpass1!").Return(nil)

	authService := NewAuthService(mockUserRepo, nil, nil)

	err := authService.ChangePassword(context.Background(), 1, "current1!", "newpass1!", "newpass1!")

	require.NoError(t, err)
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_ChangePassword_WrongCurrent(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("current1!"), bcrypt.DefaultCost)

	existingUser := &entity.User{ID: 1, Password: string(hashedPassword), IsActive: true}
	mockUserRepo.On("GetByID", uint(1)).Return(existingUser, nil)

	authService := NewAuthService(mockUserRepo, nil, nil)

	err := authService.ChangePassword(context.Background(), 1, "wrong1!", "newpass1!", "newpass1!")

	assert.ErrorIs(t, err, ErrCurrentPasswordWrong)
	mockUserRepo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything)
}
