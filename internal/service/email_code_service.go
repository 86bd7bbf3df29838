package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/cabinet-api/internal/domain/entity"
	"github.com/yourusername/cabinet-api/internal/domain/repository"
	apperrors "github.com/yourusername/cabinet-api/internal/pkg/errors"
	"github.com/yourusername/cabinet-api/internal/pkg/validator"
	"github.com/yourusername/cabinet-api/internal/service/emailflow"
)

// Scenario - пользовательский сценарий подтверждения email
type Scenario string

const (
	ScenarioPasswordReset Scenario = "password_reset"
	ScenarioSignup        Scenario = "signup"
	ScenarioChangeEmail   Scenario = "change_email"
)

// scenarioPrefixes сопоставляет сценарий с префиксом состояния flow
var scenarioPrefixes = map[Scenario]string{
	ScenarioPasswordReset: emailflow.PrefixPasswordReset,
	ScenarioSignup:        emailflow.PrefixSignup,
	ScenarioChangeEmail:   emailflow.PrefixChangeEmail,
}

// Срок действия кода восстановления в журнале
const resetCodeTTL = 10 * time.Minute

// SendCodeResult - результат успешной отправки кода
type SendCodeResult struct {
	Attempts        int
	CooldownSeconds int
}

// EmailCodeService реализует трёхшаговые сценарии подтверждения email:
// отправка кода, проверка кода и финальное действие сценария.
// Вся работа с кодами и паузами делегируется emailflow.Engine,
// здесь живёт только сценарная логика.
type EmailCodeService struct {
	engine         *emailflow.Engine
	userRepo       repository.UserRepository
	resetRepo      repository.PasswordResetRepository
	emailService   EmailService
	allowedDomains []string
}

// NewEmailCodeService создает сервис сценариев подтверждения email
func NewEmailCodeService(
	engine *emailflow.Engine,
	userRepo repository.UserRepository,
	resetRepo repository.PasswordResetRepository,
	emailService EmailService,
	allowedDomains []string,
) *EmailCodeService {
	return &EmailCodeService{
		engine:         engine,
		userRepo:       userRepo,
		resetRepo:      resetRepo,
		emailService:   emailService,
		allowedDomains: allowedDomains,
	}
}

// SendCode выполняет шаг 1 сценария: валидация email, сценарные проверки,
// выдача кода и отправка письма. userID=0 означает анонимный запрос.
//
// Отличия по сценариям:
//   - password_reset: email должен существовать
//   - signup: email не должен быть занят
//   - change_email: требуется авторизация, email не должен быть занят другим
func (s *EmailCodeService) SendCode(ctx context.Context, sid string, userID uint, scenario Scenario, emailRaw string) (*SendCodeResult, error) {
	prefix, ok := scenarioPrefixes[scenario]
	if !ok {
		return nil, ErrUnknownScenario
	}

	email, err := validator.NormalizeEmail(emailRaw)
	if err != nil {
		return nil, err
	}
	if err := validator.CheckAllowedDomain(email, s.allowedDomains); err != nil {
		return nil, err
	}

	targetEmail, resetUser, err := s.resolveTarget(scenario, userID, email)
	if err != nil {
		return nil, err
	}
	if targetEmail == "" {
		return nil, fmt.Errorf("target email is empty for scenario %s", scenario)
	}

	result, err := s.engine.RequestCode(sid, prefix, targetEmail)
	if err != nil {
		return nil, err
	}

	// Журналируем только восстановление пароля
	if scenario == ScenarioPasswordReset && resetUser != nil {
		if err := s.logResetCode(resetUser.ID, result.Code); err != nil {
			log.Printf("[EmailCodeService] Не удалось записать код восстановления в журнал: %v", err)
		}
	}

	subject, message := buildEmailSubjectMessage(scenario, result.Code)
	idempotencyKey := fmt.Sprintf("%s:%s:%d", sid, prefix, result.Attempts)
	if err := s.emailService.SendCode(ctx, targetEmail, subject, message, idempotencyKey); err != nil {
		return nil, err
	}

	return &SendCodeResult{
		Attempts:        result.Attempts,
		CooldownSeconds: result.CooldownSeconds,
	}, nil
}

// resolveTarget выполняет сценарные проверки и возвращает адрес, на который
// уйдёт код, и пользователя для журнала (только для password_reset)
func (s *EmailCodeService) resolveTarget(scenario Scenario, userID uint, email string) (string, *entity.User, error) {
	switch scenario {
	case ScenarioPasswordReset:
		user, err := s.userRepo.GetByEmail(email)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return "", nil, ErrEmailNotFound
			}
			return "", nil, err
		}
		// Отправляем на канонический адрес из базы, не на введённый
		return user.Email, user, nil

	case ScenarioSignup:
		taken, err := s.userRepo.EmailTakenByOther(email, 0)
		if err != nil {
			return "", nil, err
		}
		if taken {
			return "", nil, ErrEmailExists
		}
		return email, nil, nil

	case ScenarioChangeEmail:
		if userID == 0 {
			return "", nil, ErrNeedAuth
		}
		taken, err := s.userRepo.EmailTakenByOther(email, userID)
		if err != nil {
			return "", nil, err
		}
		if taken {
			return "", nil, ErrEmailExists
		}
		return email, nil, nil
	}

	return "", nil, ErrUnknownScenario
}

// logResetCode пишет выданный код в журнал восстановления. Прежние
// неиспользованные записи пользователя закрываются, активной остаётся одна.
func (s *EmailCodeService) logResetCode(userID uint, code string) error {
	if err := s.resetRepo.MarkAllUsed(userID); err != nil {
		return err
	}
	return s.resetRepo.Create(&entity.PasswordResetRequest{
		UserID:    userID,
		Code:      code,
		ExpiresAt: time.Now().Add(resetCodeTTL),
	})
}

// VerifyCode выполняет шаг 2 сценария: сверку кода.
// Для change_email требуется авторизация.
func (s *EmailCodeService) VerifyCode(ctx context.Context, sid string, userID uint, scenario Scenario, code string) error {
	prefix, ok := scenarioPrefixes[scenario]
	if !ok {
		return ErrUnknownScenario
	}
	if scenario == ScenarioChangeEmail && userID == 0 {
		return ErrNeedAuth
	}

	err := s.engine.VerifyCode(sid, prefix, code)
	if scenario == ScenarioPasswordReset && errors.Is(err, emailflow.ErrCodeExpired) {
		s.closeExpiredResetEntry(sid, prefix)
	}
	return err
}

// closeExpiredResetEntry закрывает активную запись журнала восстановления,
// когда истечение кода обнаружено на шаге проверки. Запись не должна
// оставаться активной дольше, чем живёт сам код.
func (s *EmailCodeService) closeExpiredResetEntry(sid, prefix string) {
	email, err := s.engine.FlowEmail(sid, prefix)
	if err != nil {
		return
	}
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[EmailCodeService] Не удалось найти пользователя %s для закрытия журнала: %v", MaskEmail(email), err)
		}
		return
	}
	req, err := s.resetRepo.GetLatestActiveByUserID(user.ID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[EmailCodeService] Не удалось прочитать журнал восстановления для пользователя ID=%d: %v", user.ID, err)
		}
		return
	}
	if err := s.resetRepo.MarkUsed(req.ID); err != nil {
		log.Printf("[EmailCodeService] Не удалось закрыть запись журнала ID=%d: %v", req.ID, err)
	}
}

// ConfirmPasswordReset выполняет шаг 3 сценария password_reset:
// проверяет пару новых паролей и меняет пароль пользователю,
// чей email был подтверждён кодом.
func (s *EmailCodeService) ConfirmPasswordReset(ctx context.Context, sid, password1, password2 string) error {
	if password1 == "" || password2 == "" {
		return &validator.ValidationError{Violations: []string{MsgConfirmNewPassword}}
	}
	if password1 != password2 {
		return &validator.ValidationError{Violations: []string{MsgPasswordsMismatch}}
	}
	password, err := validator.ValidatePassword(password1)
	if err != nil {
		return err
	}

	prefix := scenarioPrefixes[ScenarioPasswordReset]
	email, err := s.engine.VerifiedEmail(sid, prefix)
	if err != nil {
		s.clearFlowQuietly(sid, prefix)
		return err
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Между шагами пользователь мог исчезнуть или сменить email
			s.clearFlowQuietly(sid, prefix)
			return emailflow.ErrSessionExpired
		}
		return err
	}

	if err := s.userRepo.UpdatePassword(user.ID, password); err != nil {
		return err
	}

	// Закрываем активную запись журнала
	if err := s.resetRepo.MarkAllUsed(user.ID); err != nil {
		log.Printf("[EmailCodeService] Не удалось закрыть журнал восстановления для пользователя ID=%d: %v", user.ID, err)
	}

	s.clearFlowQuietly(sid, prefix)
	log.Printf("[EmailCodeService] Пароль восстановлен для пользователя ID=%d", user.ID)
	return nil
}

// ConfirmChangeEmailResult - результат успешной смены email
type ConfirmChangeEmailResult struct {
	Email       string
	MaskedEmail string
}

// ConfirmChangeEmail выполняет шаг 3 сценария change_email:
// проверяет текущий пароль и меняет email текущему пользователю
// на подтверждённый кодом адрес.
func (s *EmailCodeService) ConfirmChangeEmail(ctx context.Context, sid string, userID uint, currentPassword string) (*ConfirmChangeEmailResult, error) {
	if userID == 0 {
		return nil, ErrNeedAuth
	}
	if currentPassword == "" {
		return nil, &validator.ValidationError{Violations: []string{MsgEnterCurrentPassword}}
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if !user.CheckPassword(currentPassword) {
		return nil, ErrCurrentPasswordWrong
	}

	prefix := scenarioPrefixes[ScenarioChangeEmail]
	newEmail, err := s.engine.VerifiedEmail(sid, prefix)
	if err != nil {
		s.clearFlowQuietly(sid, prefix)
		return nil, err
	}

	// Email мог быть занят другим пользователем между шагами
	taken, err := s.userRepo.EmailTakenByOther(newEmail, userID)
	if err != nil {
		return nil, err
	}
	if taken {
		s.clearFlowQuietly(sid, prefix)
		return nil, emailflow.ErrSessionExpired
	}

	if err := s.userRepo.UpdateProfile(userID, map[string]interface{}{"email": newEmail}); err != nil {
		return nil, err
	}

	s.clearFlowQuietly(sid, prefix)
	log.Printf("[EmailCodeService] Email изменён для пользователя ID=%d", userID)

	return &ConfirmChangeEmailResult{
		Email:       newEmail,
		MaskedEmail: MaskEmail(newEmail),
	}, nil
}

// VerifiedEmail возвращает подтверждённый кодом адрес для сценария.
// Используется регистрацией: signup не имеет собственного confirm-шага.
func (s *EmailCodeService) VerifiedEmail(sid string, scenario Scenario) (string, error) {
	prefix, ok := scenarioPrefixes[scenario]
	if !ok {
		return "", ErrUnknownScenario
	}
	return s.engine.VerifiedEmail(sid, prefix)
}

// ClearFlow сбрасывает состояние сценария
func (s *EmailCodeService) ClearFlow(sid string, scenario Scenario) error {
	prefix, ok := scenarioPrefixes[scenario]
	if !ok {
		return ErrUnknownScenario
	}
	return s.engine.ClearFlow(sid, prefix)
}

func (s *EmailCodeService) clearFlowQuietly(sid, prefix string) {
	if err := s.engine.ClearFlow(sid, prefix); err != nil {
		log.Printf("[EmailCodeService] Не удалось сбросить состояние flow %s: %v", prefix, err)
	}
}

// buildEmailSubjectMessage возвращает тему и текст письма для сценария
func buildEmailSubjectMessage(scenario Scenario, code string) (string, string) {
	switch scenario {
	case ScenarioPasswordReset:
		return "Код для восстановления пароля",
			fmt.Sprintf("Ваш код для восстановления пароля: %s\nКод действителен 10 минут.", code)
	case ScenarioSignup:
		return "Код подтверждения регистрации",
			fmt.Sprintf("Ваш код подтверждения email: %s\nКод действителен 10 минут.", code)
	case ScenarioChangeEmail:
		return "Код подтверждения смены почты",
			fmt.Sprintf("Ваш код для смены email: %s\nКод действителен 10 минут.", code)
	default:
		return "Код подтверждения", fmt.Sprintf("Ваш код: %s", code)
	}
}
