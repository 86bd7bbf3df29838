package repository

import (
	"github.com/yourusername/cabinet-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	// EmailTakenByOther проверяет, занят ли email кем-то, кроме excludeID.
	// excludeID=0 означает "кем угодно".
	EmailTakenByOther(email string, excludeID uint) (bool, error)
	Update(user *entity.User) error
	UpdateProfile(userID uint, updates map[string]interface{}) error
	UpdatePassword(userID uint, newPassword string) error
}
