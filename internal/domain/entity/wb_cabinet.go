package entity

import "time"

// WBCabinet — кабинет Wildberries, привязанный к пользователю.
// Храним API-ключ, его название, название кабинета и дату его создания в WB.
type WBCabinet struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index:idx_wb_cabinets_user_key,unique" json:"user_id"`
	APIKey           string     `gorm:"size:255;not null;index:idx_wb_cabinets_user_key,unique" json:"-"`
	APIKeyName       string     `gorm:"size:100;not null" json:"api_key_name"`
	CabinetName      string     `gorm:"size:255;not null;default:''" json:"cabinet_name"`
	CabinetCreatedAt *time.Time `json:"cabinet_created_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (WBCabinet) TableName() string {
	return "wb_cabinets"
}
