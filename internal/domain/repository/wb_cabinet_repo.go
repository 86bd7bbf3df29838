package repository

import "github.com/yourusername/cabinet-api/internal/domain/entity"

// WBCabinetRepository определяет методы для работы с кабинетами WB
type WBCabinetRepository interface {
	Create(cabinet *entity.WBCabinet) error
	GetByID(id uint) (*entity.WBCabinet, error)
	ListByUserID(userID uint) ([]entity.WBCabinet, error)
	Update(cabinet *entity.WBCabinet) error
	Delete(id uint) error
	// APIKeyTaken / APIKeyNameTaken проверяют уникальность в пределах одного
	// пользователя; excludeID исключает редактируемый кабинет (0 — не исключать).
	APIKeyTaken(userID uint, apiKey string, excludeID uint) (bool, error)
	APIKeyNameTaken(userID uint, apiKeyName string, excludeID uint) (bool, error)
}
