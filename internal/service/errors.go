package service

import "errors"

// Ошибки пользовательских сценариев. Хендлеры используют их для
// стабильного маппинга в HTTP-статусы и тексты ответов.
var (
	ErrInvalidCredentials   = errors.New("invalid_credentials")
	ErrEmailExists          = errors.New("email_exists")
	ErrEmailNotFound        = errors.New("email_not_found")
	ErrEmailNotVerified     = errors.New("email_not_verified")
	ErrNeedAuth             = errors.New("need_auth")
	ErrUnknownScenario      = errors.New("unknown_scenario")
	ErrConfirmNotNeeded     = errors.New("confirm_not_needed")
	ErrCurrentPasswordWrong = errors.New("current_password_wrong")
	ErrPasswordsMismatch    = errors.New("passwords_mismatch")
)
