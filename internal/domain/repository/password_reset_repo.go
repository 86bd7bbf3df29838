package repository

import "github.com/yourusername/cabinet-api/internal/domain/entity"

// PasswordResetRepository ведёт журнал выданных кодов восстановления пароля.
type PasswordResetRepository interface {
	Create(req *entity.PasswordResetRequest) error
	// MarkAllUsed помечает все неиспользованные записи пользователя как
	// использованные. Вызывается перед выдачей нового кода, чтобы активной
	// оставалась ровно одна запись.
	MarkAllUsed(userID uint) error
	MarkUsed(id uint) error
	// GetLatestActiveByUserID возвращает последнюю неиспользованную запись
	GetLatestActiveByUserID(userID uint) (*entity.PasswordResetRequest, error)
	ListByUserID(userID uint, limit int) ([]entity.PasswordResetRequest, error)
	ListAll(limit int) ([]entity.PasswordResetRequest, error)
}
