package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/cabinet-api/internal/domain/entity"
	apperrors "github.com/yourusername/cabinet-api/internal/pkg/errors"
)

// UserSessionRepo реализует repository.UserSessionRepository
type UserSessionRepo struct {
	db *gorm.DB
}

// NewUserSessionRepo создает новый репозиторий пользовательских сессий
func NewUserSessionRepo(db *gorm.DB) *UserSessionRepo {
	return &UserSessionRepo{db: db}
}

// Create создает новую сессию
func (r *UserSessionRepo) Create(session *entity.UserSession) error {
	return r.db.Create(session).Error
}

// DeactivateExpired помечает неактивными все сессии пользователя,
// чьё окно уже закончилось (end_time <= now)
func (r *UserSessionRepo) DeactivateExpired(userID uint, now time.Time) (int64, error) {
	result := r.db.Model(&entity.UserSession{}).
		Where("user_id = ? AND is_active = ? AND end_time <= ?", userID, true, now).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// GetActive возвращает самую свежую активную сессию пользователя
func (r *UserSessionRepo) GetActive(userID uint, now time.Time) (*entity.UserSession, error) {
	var session entity.UserSession
	err := r.db.Where("user_id = ? AND is_active = ? AND end_time > ?", userID, true, now).
		Order("start_time DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Extend сохраняет продлённое окно сессии.
// Обновляются только поля окна и ключ, остальное не трогаем.
func (r *UserSessionRepo) Extend(session *entity.UserSession) error {
	return r.db.Model(&entity.UserSession{}).
		Where("id = ?", session.ID).
		Updates(map[string]interface{}{
			"end_time":     session.EndTime,
			"duration_sec": session.DurationSec,
			"session_key":  session.SessionKey,
			"updated_at":   time.Now(),
		}).Error
}

// EndAll закрывает все активные сессии пользователя
func (r *UserSessionRepo) EndAll(userID uint, now time.Time) error {
	return r.db.Model(&entity.UserSession{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]interface{}{
			"is_active":    false,
			"end_time":     now,
			"duration_sec": gorm.Expr("GREATEST(EXTRACT(EPOCH FROM (? - start_time))::bigint, 0)", now),
			"updated_at":   now,
		}).Error
}

// ListByUserID возвращает историю сессий пользователя, новые первыми
func (r *UserSessionRepo) ListByUserID(userID uint, limit int) ([]entity.UserSession, error) {
	var sessions []entity.UserSession
	err := r.db.Where("user_id = ?", userID).
		Order("start_time DESC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

// ListAll возвращает историю сессий по всем пользователям, новые первыми
func (r *UserSessionRepo) ListAll(limit int) ([]entity.UserSession, error) {
	var sessions []entity.UserSession
	err := r.db.Order("start_time DESC").Limit(limit).Find(&sessions).Error
	return sessions, err
}
