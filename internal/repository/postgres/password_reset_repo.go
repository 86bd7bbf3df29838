package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/cabinet-api/internal/domain/entity"
	apperrors "github.com/yourusername/cabinet-api/internal/pkg/errors"
)

// PasswordResetRepo реализует repository.PasswordResetRepository
type PasswordResetRepo struct {
	db *gorm.DB
}

// NewPasswordResetRepo создает новый репозиторий журнала восстановления пароля
func NewPasswordResetRepo(db *gorm.DB) *PasswordResetRepo {
	return &PasswordResetRepo{db: db}
}

// Create добавляет новую запись в журнал
func (r *PasswordResetRepo) Create(req *entity.PasswordResetRequest) error {
	return r.db.Create(req).Error
}

// MarkAllUsed помечает все неиспользованные записи пользователя как использованные
func (r *PasswordResetRepo) MarkAllUsed(userID uint) error {
	return r.db.Model(&entity.PasswordResetRequest{}).
		Where("user_id = ? AND is_used = ?", userID, false).
		Update("is_used", true).Error
}

// MarkUsed помечает одну запись как использованную
func (r *PasswordResetRepo) MarkUsed(id uint) error {
	return r.db.Model(&entity.PasswordResetRequest{}).
		Where("id = ?", id).
		Update("is_used", true).Error
}

// GetLatestActiveByUserID возвращает последнюю неиспользованную запись пользователя
func (r *PasswordResetRepo) GetLatestActiveByUserID(userID uint) (*entity.PasswordResetRequest, error) {
	var req entity.PasswordResetRequest
	err := r.db.Where("user_id = ? AND is_used = ?", userID, false).
		Order("created_at DESC").
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListByUserID возвращает историю запросов пользователя, новые первыми
func (r *PasswordResetRepo) ListByUserID(userID uint, limit int) ([]entity.PasswordResetRequest, error) {
	var reqs []entity.PasswordResetRequest
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&reqs).Error
	return reqs, err
}

// ListAll возвращает историю запросов по всем пользователям, новые первыми
func (r *PasswordResetRepo) ListAll(limit int) ([]entity.PasswordResetRequest, error) {
	var reqs []entity.PasswordResetRequest
	err := r.db.Order("created_at DESC").Limit(limit).Find(&reqs).Error
	return reqs, err
}
