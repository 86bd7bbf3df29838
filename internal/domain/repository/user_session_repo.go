package repository

import (
	"time"

	"github.com/yourusername/cabinet-api/internal/domain/entity"
)

// UserSessionRepository определяет методы для работы с пользовательскими сессиями
type UserSessionRepository interface {
	Create(session *entity.UserSession) error
	// DeactivateExpired помечает is_active=false у всех активных сессий
	// пользователя, чьё end_time <= now. Возвращает количество затронутых строк.
	DeactivateExpired(userID uint, now time.Time) (int64, error)
	// GetActive возвращает самую свежую активную сессию с end_time > now
	GetActive(userID uint, now time.Time) (*entity.UserSession, error)
	// Extend продлевает окно сессии и пересчитывает duration
	Extend(session *entity.UserSession) error
	// EndAll закрывает все активные сессии пользователя: end_time=now,
	// duration пересчитан, is_active=false
	EndAll(userID uint, now time.Time) error
	ListByUserID(userID uint, limit int) ([]entity.UserSession, error)
	ListAll(limit int) ([]entity.UserSession, error)
}
