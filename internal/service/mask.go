package service

import "strings"

// MaskEmail маскирует локальную часть email: короткие адреса показывают
// первый и последний символ, длинные первые 3 и последние 2,
// остальное заменяется звёздочками (минимум одной). Домен не трогаем.
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if email == "" || at < 0 {
		return email
	}

	local := []rune(email[:at])
	domain := email[at+1:]

	var visibleStart, visibleEnd []rune
	if len(local) <= 4 {
		visibleStart = local[:1]
		if len(local) > 1 {
			visibleEnd = local[len(local)-1:]
		}
	} else {
		visibleStart = local[:3]
		visibleEnd = local[len(local)-2:]
	}

	stars := len(local) - len(visibleStart) - len(visibleEnd)
	if stars < 1 {
		stars = 1
	}

	return string(visibleStart) + strings.Repeat("*", stars) + string(visibleEnd) + "@" + domain
}

// ShortAPIKey сжимает длинный ключ для отображения: первые 4 + ... + последние 4.
// Полный ключ на фронт не отдаём.
func ShortAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return apiKey
	}
	return apiKey[:4] + "..." + apiKey[len(apiKey)-4:]
}
