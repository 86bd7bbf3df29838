package emailflow

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"
)

// Ошибки проверки кода подтверждения
var (
	// ErrSessionExpired - состояние flow отсутствует или код ещё не запрашивался
	ErrSessionExpired = errors.New("verification_session_expired")
	// ErrCodeExpired - срок действия кода истёк
	ErrCodeExpired = errors.New("verification_code_expired")
	// ErrCodeMismatch - введён неверный код
	ErrCodeMismatch = errors.New("invalid_verification_code")
)

// CooldownError возвращается, когда повторная отправка кода ещё не разрешена
type CooldownError struct {
	RemainingSeconds int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, retry in %d seconds", e.RemainingSeconds)
}

// Clock абстрагирует текущее время для тестируемости
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config содержит настройки движка подтверждения email
type Config struct {
	CodeTTL  time.Duration // срок действия кода
	StateTTL time.Duration // время жизни состояния flow в хранилище
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		CodeTTL:  10 * time.Minute,
		StateTTL: 24 * time.Hour,
	}
}

// Engine управляет жизненным циклом кода подтверждения email: отправка с
// нарастающей паузой, проверка, чтение подтверждённого адреса и сброс.
// Движок не знает о сценариях - сценарий для него лишь префикс.
type Engine struct {
	store  Store
	clock  Clock
	config *Config
}

// NewEngine создает движок подтверждения email
func NewEngine(store Store, clock Clock, config *Config) *Engine {
	if clock == nil {
		clock = realClock{}
	}
	if config == nil {
		config = DefaultConfig()
	}
	return &Engine{store: store, clock: clock, config: config}
}

// SendResult описывает результат выдачи нового кода
type SendResult struct {
	Code            string // сгенерированный код, отправляет вызывающая сторона
	Attempts        int    // сколько кодов отправлено с учётом этого
	CooldownSeconds int    // пауза до следующей отправки
}

// RequestCode выдаёт новый код для пары (сессия, сценарий).
// При действующей паузе возвращает *CooldownError с остатком ожидания.
// Счётчик попыток наследуется от предыдущих отправок в этой сессии,
// даже если прежний код уже истёк.
func (e *Engine) RequestCode(sid, prefix, email string) (*SendResult, error) {
	state, _, err := e.store.Load(sid, prefix)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	if wait := RequiredWait(state.Attempts, state.LastAttemptTS, now); wait > 0 {
		remaining := int((wait + time.Second - 1) / time.Second)
		return nil, &CooldownError{RemainingSeconds: remaining}
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}

	state = FlowState{
		Attempts:      state.Attempts + 1,
		LastAttemptTS: now.Unix(),
		Code:          code,
		ExpiresTS:     now.Add(e.config.CodeTTL).Unix(),
		Email:         email,
		Verified:      false,
	}
	if err := e.store.Save(sid, prefix, state, e.config.StateTTL); err != nil {
		return nil, err
	}

	log.Printf("[EmailFlow] Выдан код для сценария %s, попытка %d", prefix, state.Attempts)

	return &SendResult{
		Code:            code,
		Attempts:        state.Attempts,
		CooldownSeconds: NextCooldownSeconds(state.Attempts),
	}, nil
}

// VerifyCode сверяет код и помечает адрес подтверждённым.
// Счётчик попыток и метка последней отправки при этом сохраняются.
func (e *Engine) VerifyCode(sid, prefix, code string) error {
	state, found, err := e.store.Load(sid, prefix)
	if err != nil {
		return err
	}
	if !found || state.Code == "" {
		return ErrSessionExpired
	}
	if e.clock.Now().Unix() > state.ExpiresTS {
		// Истечение снимает подтверждение: флаг не должен пережить свой код
		if state.Verified {
			state.Verified = false
			if err := e.store.Save(sid, prefix, state, e.config.StateTTL); err != nil {
				log.Printf("[EmailFlow] Не удалось снять флаг подтверждения для сценария %s: %v", prefix, err)
			}
		}
		return ErrCodeExpired
	}
	if state.Code != code {
		return ErrCodeMismatch
	}

	state.Verified = true
	return e.store.Save(sid, prefix, state, e.config.StateTTL)
}

// VerifiedEmail возвращает подтверждённый адрес для пары (сессия, сценарий).
// Срок действия кода проверяется повторно: между проверкой и завершением
// сценария могло пройти время.
func (e *Engine) VerifiedEmail(sid, prefix string) (string, error) {
	state, found, err := e.store.Load(sid, prefix)
	if err != nil {
		return "", err
	}
	if !found || !state.Verified {
		return "", ErrSessionExpired
	}
	if e.clock.Now().Unix() > state.ExpiresTS {
		return "", ErrCodeExpired
	}
	return state.Email, nil
}

// FlowEmail возвращает адрес текущего flow независимо от подтверждения
// и срока действия кода. Нужен сценарной логике, когда код уже истёк,
// а связанные с flow записи ещё требуют закрытия.
func (e *Engine) FlowEmail(sid, prefix string) (string, error) {
	state, found, err := e.store.Load(sid, prefix)
	if err != nil {
		return "", err
	}
	if !found || state.Email == "" {
		return "", ErrSessionExpired
	}
	return state.Email, nil
}

// ClearFlow сбрасывает состояние сценария после его завершения
func (e *Engine) ClearFlow(sid, prefix string) error {
	return e.store.Clear(sid, prefix)
}

// generateCode возвращает код из 6 цифр, ведущие нули сохраняются
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
