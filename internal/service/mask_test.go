package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	// Длинная локальная часть: первые 3 + последние 2
	assert.Equal(t, "iva***ov@example.com", MaskEmail("ivan.pov@example.com"))

	// Короткая локальная часть: первый и последний символ
	assert.Equal(t, "i**n@example.com", MaskEmail("ivan@example.com"))
	assert.Equal(t, "a*b@example.com", MaskEmail("ab@example.com"))

	// Один символ: звёздочка всё равно присутствует
	assert.Equal(t, "a*@example.com", MaskEmail("a@example.com"))

	// Минимум одна звёздочка даже когда видимые части покрывают всё
	assert.Equal(t, "abc*de@example.com", MaskEmail("abcde@example.com"))

	// Домен не трогаем
	assert.Equal(t, "iva****21@mail.ru", MaskEmail("ivanov_21@mail.ru"))

	// Не email - возвращаем как есть
	assert.Equal(t, "", MaskEmail(""))
	assert.Equal(t, "not-an-email", MaskEmail("not-an-email"))
}

func TestShortAPIKey(t *testing.T) {
	assert.Equal(t, "", ShortAPIKey(""))
	assert.Equal(t, "short", ShortAPIKey("short"))
	assert.Equal(t, "12345678", ShortAPIKey("12345678"))
	assert.Equal(t, "eyJh...9xYz", ShortAPIKey("eyJhbGciOiJIUzI1NiJ9xYz"))
}
