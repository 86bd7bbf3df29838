package repository

import (
	"time"
)

// CacheRepository определяет методы для работы с кешем и сессионным хранилищем
type CacheRepository interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string) (string, error)
	Delete(key string) error
	Increment(key string) (int64, error)
	Exists(key string) (bool, error)
	Expire(key string, expiration time.Duration) error

	// Хеш-операции: состояние flow подтверждения email хранится одним хешем
	// на (сессия, prefix), поля записываются частично, читаются целиком.
	SetHashFields(key string, fields map[string]interface{}) error
	GetHash(key string) (map[string]string, error)
}
