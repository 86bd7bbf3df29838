package emailflow

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore - хранилище состояния в памяти для тестов
type memoryStore struct {
	states map[string]FlowState
}

func newMemoryStore() *memoryStore {
	return &memoryStore{states: make(map[string]FlowState)}
}

func (s *memoryStore) Load(sid, prefix string) (FlowState, bool, error) {
	state, ok := s.states[stateKey(sid, prefix)]
	return state, ok, nil
}

func (s *memoryStore) Save(sid, prefix string, state FlowState, _ time.Duration) error {
	s.states[stateKey(sid, prefix)] = state
	return nil
}

func (s *memoryStore) Clear(sid, prefix string) error {
	delete(s.states, stateKey(sid, prefix))
	return nil
}

// fakeClock - управляемое время для тестов
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine() (*Engine, *memoryStore, *fakeClock) {
	store := newMemoryStore()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewEngine(store, clock, nil), store, clock
}

func TestEngine_RequestCode_FirstSend(t *testing.T) {
	engine, _, _ := newTestEngine()

	result, err := engine.RequestCode("sid-1", PrefixSignup, "user@example.com")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), result.Code, "Код должен состоять из 6 цифр")
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 30, result.CooldownSeconds)
}

func TestEngine_RequestCode_CooldownBlocks(t *testing.T) {
	engine, _, clock := newTestEngine()

	_, err := engine.RequestCode("sid-1", PrefixSignup, "user@example.com")
	require.NoError(t, err)

	// Повторная отправка сразу же запрещена
	clock.Advance(10 * time.Second)
	_, err = engine.RequestCode("sid-1", PrefixSignup, "user@example.com")
	var cooldownErr *CooldownError
	require.True(t, errors.As(err, &cooldownErr), "Ожидалась ошибка паузы")
	assert.Equal(t, 20, cooldownErr.RemainingSeconds)

	// После паузы отправка снова разрешена, пауза растёт
	clock.Advance(21 * time.Second)
	result, err := engine.RequestCode("sid-1", PrefixSignup, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, 300, result.CooldownSeconds)
}

func TestEngine_RequestCode_CooldownSurvivesCodeExpiry(t *testing.T) {
	engine, _, clock := newTestEngine()

	_, err := engine.RequestCode("sid-1", PrefixPasswordReset, "user@example.com")
	require.NoError(t, err)
	clock.Advance(1 * time.Minute)
	_, err = engine.RequestCode("sid-1", PrefixPasswordReset, "user@example.com")
	require.NoError(t, err)
	clock.Advance(11 * time.Minute)
	_, err = engine.RequestCode("sid-1", PrefixPasswordReset, "user@example.com")
	require.NoError(t, err)

	// Код давно истёк, но счётчик попыток не сбрасывается
	clock.Advance(2 * time.Minute)
	_, err = engine.RequestCode("sid-1", PrefixPasswordReset, "user@example.com")
	var cooldownErr *CooldownError
	require.True(t, errors.As(err, &cooldownErr))
	assert.Equal(t, 480, cooldownErr.RemainingSeconds)
}

func TestEngine_RequestCode_ScenariosIndependent(t *testing.T) {
	engine, _, _ := newTestEngine()

	_, err := engine.RequestCode("sid-1", PrefixSignup, "a@example.com")
	require.NoError(t, err)

	// Пауза в одном сценарии не блокирует другой
	result, err := engine.RequestCode("sid-1", PrefixChangeEmail, "b@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempts)

	// И не блокирует другую сессию
	result, err = engine.RequestCode("sid-2", PrefixSignup, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempts)
}

func TestEngine_VerifyCode(t *testing.T) {
	engine, _, clock := newTestEngine()

	result, err := engine.RequestCode("sid-1", PrefixSignup, "user@example.com")
	require.NoError(t, err)

	// Нет состояния - сессия истекла
	err = engine.VerifyCode("sid-2", PrefixSignup, result.Code)
	assert.ErrorIs(t, err, ErrSessionExpired)

	// Неверный код
	wrong := "000000"
	if result.Code == wrong {
		wrong = "000001"
	}
	err = engine.VerifyCode("sid-1", PrefixSignup, wrong)
	assert.ErrorIs(t, err, ErrCodeMismatch)

	// Верный код
	err = engine.VerifyCode("sid-1", PrefixSignup, result.Code)
	require.NoError(t, err)

	email, err := engine.VerifiedEmail("sid-1", PrefixSignup)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", email)

	// Истёкший код
	clock.Advance(11 * time.Minute)
	err = engine.VerifyCode("sid-1", PrefixSignup, result.Code)
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestEngine_VerifyCode_ExpiryResetsVerified(t *testing.T) {
	engine, store, clock := newTestEngine()

	result, err := engine.RequestCode("sid-1", PrefixPasswordReset, "user@example.com")
	require.NoError(t, err)
	require.NoError(t, engine.VerifyCode("sid-1", PrefixPasswordReset, result.Code))

	state, found, err := store.Load("sid-1", PrefixPasswordReset)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, state.Verified)

	// Проверка после истечения кода снимает прежнее подтверждение
	clock.Advance(11 * time.Minute)
	err = engine.VerifyCode("sid-1", PrefixPasswordReset, result.Code)
	assert.ErrorIs(t, err, ErrCodeExpired)

	state, found, err = store.Load("sid-1", PrefixPasswordReset)
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, state.Verified, "Флаг подтверждения не должен переживать истёкший код")
}

func TestEngine_FlowEmail(t *testing.T) {
	engine, _, clock := newTestEngine()

	_, err := engine.FlowEmail("sid-1", PrefixPasswordReset)
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = engine.RequestCode("sid-1", PrefixPasswordReset, "user@example.com")
	require.NoError(t, err)

	// Адрес доступен без подтверждения и после истечения кода
	clock.Advance(11 * time.Minute)
	email, err := engine.FlowEmail("sid-1", PrefixPasswordReset)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", email)
}

func TestEngine_VerifiedEmail_RechecksExpiry(t *testing.T) {
	engine, _, clock := newTestEngine()

	result, err := engine.RequestCode("sid-1", PrefixChangeEmail, "new@example.com")
	require.NoError(t, err)
	require.NoError(t, engine.VerifyCode("sid-1", PrefixChangeEmail, result.Code))

	// Подтверждение было, но срок кода истёк до завершения сценария
	clock.Advance(11 * time.Minute)
	_, err = engine.VerifiedEmail("sid-1", PrefixChangeEmail)
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestEngine_VerifiedEmail_NotVerified(t *testing.T) {
	engine, _, _ := newTestEngine()

	_, err := engine.RequestCode("sid-1", PrefixSignup, "user@example.com")
	require.NoError(t, err)

	// Код отправлен, но не подтверждён
	_, err = engine.VerifiedEmail("sid-1", PrefixSignup)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestEngine_ClearFlow(t *testing.T) {
	engine, store, _ := newTestEngine()

	result, err := engine.RequestCode("sid-1", PrefixPasswordReset, "user@example.com")
	require.NoError(t, err)
	require.NoError(t, engine.VerifyCode("sid-1", PrefixPasswordReset, result.Code))

	require.NoError(t, engine.ClearFlow("sid-1", PrefixPasswordReset))

	_, found, err := store.Load("sid-1", PrefixPasswordReset)
	require.NoError(t, err)
	assert.False(t, found, "Состояние должно быть удалено")

	_, err = engine.VerifiedEmail("sid-1", PrefixPasswordReset)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestStateRoundTrip(t *testing.T) {
	original := FlowState{
		Attempts:      2,
		LastAttemptTS: 1740830400,
		Code:          "004217",
		ExpiresTS:     1740831000,
		Email:         "user@example.com",
		Verified:      true,
	}

	// Redis возвращает все поля хеша строками
	stringFields := make(map[string]string)
	for k, v := range original.toFields() {
		stringFields[k] = fmt.Sprint(v)
	}

	restored := stateFromFields(stringFields)
	assert.Equal(t, original, restored)
}
