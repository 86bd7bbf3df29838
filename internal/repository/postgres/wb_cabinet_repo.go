package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/cabinet-api/internal/domain/entity"
	apperrors "github.com/yourusername/cabinet-api/internal/pkg/errors"
)

// WBCabinetRepo реализует repository.WBCabinetRepository
type WBCabinetRepo struct {
	db *gorm.DB
}

// NewWBCabinetRepo создает новый репозиторий кабинетов WB
func NewWBCabinetRepo(db *gorm.DB) *WBCabinetRepo {
	return &WBCabinetRepo{db: db}
}

// Create создает новый кабинет
func (r *WBCabinetRepo) Create(cabinet *entity.WBCabinet) error {
	return r.db.Create(cabinet).Error
}

// GetByID возвращает кабинет по ID
func (r *WBCabinetRepo) GetByID(id uint) (*entity.WBCabinet, error) {
	var cabinet entity.WBCabinet
	err := r.db.First(&cabinet, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &cabinet, nil
}

// ListByUserID возвращает все кабинеты пользователя, новые первыми
func (r *WBCabinetRepo) ListByUserID(userID uint) ([]entity.WBCabinet, error) {
	var cabinets []entity.WBCabinet
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&cabinets).Error
	return cabinets, err
}

// Update обновляет кабинет
func (r *WBCabinetRepo) Update(cabinet *entity.WBCabinet) error {
	return r.db.Save(cabinet).Error
}

// Delete удаляет кабинет
func (r *WBCabinetRepo) Delete(id uint) error {
	result := r.db.Delete(&entity.WBCabinet{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// APIKeyTaken проверяет, привязан ли такой API-ключ к другому кабинету пользователя
func (r *WBCabinetRepo) APIKeyTaken(userID uint, apiKey string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.Model(&entity.WBCabinet{}).Where("user_id = ? AND api_key = ?", userID, apiKey)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// APIKeyNameTaken проверяет, занято ли имя ключа другим кабинетом пользователя
func (r *WBCabinetRepo) APIKeyNameTaken(userID uint, apiKeyName string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.Model(&entity.WBCabinet{}).Where("user_id = ? AND api_key_name = ?", userID, apiKeyName)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
