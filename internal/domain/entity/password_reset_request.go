package entity

import "time"

// PasswordResetRequest — журнальная запись о выданном коде восстановления пароля.
// Записи никогда не удаляются: таблица служит аудит-следом. Активной (is_used=false)
// может быть не более одной записи на пользователя — выдача нового кода помечает
// все предыдущие как использованные.
type PasswordResetRequest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Code      string    `gorm:"size:6;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	IsUsed    bool      `gorm:"not null;default:false" json:"is_used"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (PasswordResetRequest) TableName() string {
	return "password_reset_requests"
}

// IsExpired возвращает true, если срок действия кода истёк к моменту now.
func (r *PasswordResetRequest) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
