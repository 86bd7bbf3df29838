package entity

import "time"

// UserSession — пользовательская сессия со скользящим окном жизни.
// Каждый авторизованный запрос продлевает end_time; истёкшая сессия
// деактивируется лениво при следующем обращении. В любой момент у пользователя
// не более одной записи с is_active=true и end_time в будущем (это обеспечивает
// алгоритм продления, а не ограничение БД).
type UserSession struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	SessionKey string    `gorm:"size:64;not null;index" json:"session_key"`
	StartTime  time.Time `gorm:"not null" json:"start_time"`
	EndTime    time.Time `gorm:"not null;index" json:"end_time"`

	// DurationSec = EndTime - StartTime, пересчитывается при каждом продлении.
	DurationSec int64 `gorm:"not null;default:0" json:"duration_sec"`
	IsActive    bool  `gorm:"not null;default:true;index" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserSession) TableName() string {
	return "user_sessions"
}

// Expired возвращает true, если окно сессии закрылось к моменту now.
func (s *UserSession) Expired(now time.Time) bool {
	return !s.EndTime.After(now)
}
