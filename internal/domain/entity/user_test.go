package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// mockTx создаёт минимальный мок для передачи в BeforeSave
// В реальности BeforeSave не использует tx напрямую, но сигнатура требует его
var mockTx *gorm.DB = nil

func TestUser_BeforeSave_HashesPassword(t *testing.T) {
	plainPassword := "mySecretPassword123"
	user := &User{
		Username: "testuser",
		Email:    "test@example.com",
		Password: plainPassword,
	}

	err := user.BeforeSave(mockTx)

	require.NoError(t, err, "BeforeSave не должен возвращать ошибку")
	assert.NotEqual(t, plainPassword, user.Password, "Пароль должен быть изменён после хеширования")
	assert.True(t, len(user.Password) > 50, "Хеш bcrypt должен быть длиннее 50 символов")

	// Проверяем, что пароль действительно bcrypt-хеш
	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(plainPassword))
	assert.NoError(t, err, "Хеш должен соответствовать исходному паролю")
}

func TestUser_BeforeSave_SkipsAlreadyHashedPassword(t *testing.T) {
	plainPassword := "alreadyHashed"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &User{
		Username: "testuser",
		Email:    "test@example.com",
		Password: string(hashedPassword),
	}
	originalHash := user.Password

	err = user.BeforeSave(mockTx)

	// Пароль не должен измениться (нет двойного хеширования)
	require.NoError(t, err)
	assert.Equal(t, originalHash, user.Password, "Уже хешированный пароль не должен изменяться")
}

func TestUser_CheckPassword(t *testing.T) {
	user := &User{Email: "test@example.com", Password: "Qwerty1!"}
	require.NoError(t, user.BeforeSave(mockTx))

	assert.True(t, user.CheckPassword("Qwerty1!"))
	assert.False(t, user.CheckPassword("qwerty1!"))
	assert.False(t, user.CheckPassword(""))
}

func TestPasswordResetRequest_IsExpired(t *testing.T) {
	now := time.Now()
	req := &PasswordResetRequest{ExpiresAt: now.Add(10 * time.Minute)}

	assert.False(t, req.IsExpired(now))
	assert.False(t, req.IsExpired(now.Add(10*time.Minute)), "граница окна ещё не истечение")
	assert.True(t, req.IsExpired(now.Add(10*time.Minute+time.Second)))
}

func TestUserSession_Expired(t *testing.T) {
	now := time.Now()
	session := &UserSession{EndTime: now.Add(24 * time.Hour)}

	assert.False(t, session.Expired(now))
	assert.True(t, session.Expired(now.Add(24*time.Hour)), "end_time <= now считается истёкшей")
	assert.True(t, session.Expired(now.Add(25*time.Hour)))
}
