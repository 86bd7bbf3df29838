package emailflow

import "time"

// Пауза между отправками кода растёт с числом уже отправленных кодов:
// первая отправка без паузы, дальше 30 секунд, 5 минут и 10 минут.
func cooldownFor(attempts int) time.Duration {
	switch {
	case attempts <= 0:
		return 0
	case attempts == 1:
		return 30 * time.Second
	case attempts == 2:
		return 5 * time.Minute
	default:
		return 10 * time.Minute
	}
}

// RequiredWait возвращает, сколько ещё нужно ждать до следующей отправки.
// Ноль или отрицательное значение - отправлять можно.
func RequiredWait(attempts int, lastAttemptTS int64, now time.Time) time.Duration {
	if attempts <= 0 || lastAttemptTS == 0 {
		return 0
	}
	allowedAt := time.Unix(lastAttemptTS, 0).Add(cooldownFor(attempts))
	return allowedAt.Sub(now)
}

// NextCooldownSeconds возвращает паузу в секундах, которая будет действовать
// после attempts отправок. Используется в ответах API.
func NextCooldownSeconds(attempts int) int {
	return int(cooldownFor(attempts) / time.Second)
}
