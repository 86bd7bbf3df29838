package emailflow

import (
	"fmt"
	"strconv"
)

// Префиксы сценариев подтверждения email. Каждый сценарий ведёт собственное
// состояние в пределах одной сессии и не пересекается с другими.
const (
	PrefixPasswordReset = "password_reset"
	PrefixSignup        = "signup_email"
	PrefixChangeEmail   = "change_email"
)

// Имена полей хеша состояния flow
const (
	fieldAttempts      = "attempts"
	fieldLastAttemptTS = "last_attempt_ts"
	fieldCode          = "code"
	fieldExpiresTS     = "expires_ts"
	fieldEmail         = "email"
	fieldVerified      = "verified"
)

// FlowState хранит состояние одного сценария подтверждения email
// в рамках одной сессии
type FlowState struct {
	Attempts      int    // сколько кодов уже отправлено
	LastAttemptTS int64  // unix-время последней отправки
	Code          string // действующий код, 6 цифр
	ExpiresTS     int64  // unix-время истечения кода
	Email         string // адрес, на который отправлен код
	Verified      bool   // код успешно подтверждён
}

// stateKey возвращает ключ хеша состояния для пары (сессия, сценарий)
func stateKey(sid, prefix string) string {
	return fmt.Sprintf("emailflow:%s:%s", sid, prefix)
}

// toFields сериализует состояние в поля хеша
func (s FlowState) toFields() map[string]interface{} {
	verified := "0"
	if s.Verified {
		verified = "1"
	}
	return map[string]interface{}{
		fieldAttempts:      s.Attempts,
		fieldLastAttemptTS: s.LastAttemptTS,
		fieldCode:          s.Code,
		fieldExpiresTS:     s.ExpiresTS,
		fieldEmail:         s.Email,
		fieldVerified:      verified,
	}
}

// stateFromFields восстанавливает состояние из полей хеша.
// Кривые значения трактуются как нулевые, а не как ошибка: состояние
// в кеше не авторитетно и в худшем случае пользователь запросит код заново.
func stateFromFields(fields map[string]string) FlowState {
	var s FlowState
	s.Attempts, _ = strconv.Atoi(fields[fieldAttempts])
	s.LastAttemptTS, _ = strconv.ParseInt(fields[fieldLastAttemptTS], 10, 64)
	s.Code = fields[fieldCode]
	s.ExpiresTS, _ = strconv.ParseInt(fields[fieldExpiresTS], 10, 64)
	s.Email = fields[fieldEmail]
	s.Verified = fields[fieldVerified] == "1"
	return s
}
