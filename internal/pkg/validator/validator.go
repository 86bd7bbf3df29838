package validator

import (
	"fmt"
	"regexp"
	"strings"
)

// Сообщения об ошибках валидации
const (
	MsgEmailEmpty        = "Укажите email."
	MsgEmailInvalid      = "Введите корректный email."
	MsgEmailBadDomain    = "Регистрация/вход с этого домена email недоступны."
	MsgUsernameEmpty     = "Укажите имя пользователя."
	MsgPasswordEmpty     = "Введите пароль."
	MsgPasswordNoLetter  = "Пароль должен содержать хотя бы одну букву."
	MsgPasswordNoDigit   = "Пароль должен содержать хотя бы одну цифру."
	MsgPasswordNoSpecial = "Пароль должен содержать хотя бы один специальный символ."
)

const passwordMinLength = 6

var (
	emailRegexp          = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	passwordLetterRegexp = regexp.MustCompile(`[A-Za-zА-Яа-я]`)
	passwordDigitRegexp  = regexp.MustCompile(`[0-9]`)
	// Спецсимволы: !@#$%^&*(),.?":{}|<>
	passwordSpecialRegexp = regexp.MustCompile("[!@#$%^&*(),.?\":{}|<>]")
)

// ValidationError содержит все найденные нарушения сразу
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Violations, "; ")
}

func newValidationError(violations ...string) *ValidationError {
	return &ValidationError{Violations: violations}
}

// NormalizeEmail обрезает пробелы, приводит email к нижнему регистру
// и проверяет формат
func NormalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", newValidationError(MsgEmailEmpty)
	}
	if !emailRegexp.MatchString(normalized) {
		return "", newValidationError(MsgEmailInvalid)
	}
	return normalized, nil
}

// CheckAllowedDomain проверяет домен email по списку разрешённых.
// Пустой список разрешает любые домены.
func CheckAllowedDomain(email string, allowedDomains []string) error {
	if len(allowedDomains) == 0 {
		return nil
	}
	parts := strings.Split(email, "@")
	domain := parts[len(parts)-1]
	for _, allowed := range allowedDomains {
		if domain == allowed {
			return nil
		}
	}
	return newValidationError(MsgEmailBadDomain)
}

// ValidateUsername проверяет, что имя пользователя не пустое,
// и возвращает его без краевых пробелов
func ValidateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", newValidationError(MsgUsernameEmpty)
	}
	return username, nil
}

// ValidatePassword проверяет пароль по правилам:
// длина не менее 6 символов, хотя бы одна буква (латиница или кириллица),
// хотя бы одна цифра, хотя бы один спецсимвол.
// Все нарушения собираются и возвращаются одной ошибкой.
// Возвращает пароль без краевых пробелов.
func ValidatePassword(password string) (string, error) {
	password = strings.TrimSpace(password)
	if password == "" {
		return "", newValidationError(MsgPasswordEmpty)
	}

	var violations []string
	if len([]rune(password)) < passwordMinLength {
		violations = append(violations,
			fmt.Sprintf("Длина пароля не менее %d символов.", passwordMinLength))
	}
	if !passwordLetterRegexp.MatchString(password) {
		violations = append(violations, MsgPasswordNoLetter)
	}
	if !passwordDigitRegexp.MatchString(password) {
		violations = append(violations, MsgPasswordNoDigit)
	}
	if !passwordSpecialRegexp.MatchString(password) {
		violations = append(violations, MsgPasswordNoSpecial)
	}

	if len(violations) > 0 {
		return "", &ValidationError{Violations: violations}
	}
	return password, nil
}
