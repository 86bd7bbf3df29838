package emailflow

import (
	"time"

	"github.com/yourusername/cabinet-api/internal/domain/repository"
)

// Store определяет хранилище состояния flow подтверждения email
type Store interface {
	// Load читает состояние пары (сессия, сценарий).
	// Отсутствующее состояние - не ошибка, возвращается found=false.
	Load(sid, prefix string) (FlowState, bool, error)
	// Save записывает состояние целиком и продлевает время жизни ключа
	Save(sid, prefix string, state FlowState, ttl time.Duration) error
	// Clear удаляет состояние пары (сессия, сценарий)
	Clear(sid, prefix string) error
}

// RedisStore реализует Store поверх repository.CacheRepository
type RedisStore struct {
	cache repository.CacheRepository
}

// NewRedisStore создает хранилище состояния flow в Redis
func NewRedisStore(cache repository.CacheRepository) *RedisStore {
	return &RedisStore{cache: cache}
}

// Load читает состояние из хеша Redis
func (s *RedisStore) Load(sid, prefix string) (FlowState, bool, error) {
	fields, err := s.cache.GetHash(stateKey(sid, prefix))
	if err != nil {
		return FlowState{}, false, err
	}
	if len(fields) == 0 {
		return FlowState{}, false, nil
	}
	return stateFromFields(fields), true, nil
}

// Save записывает состояние в хеш Redis и продлевает время жизни ключа
func (s *RedisStore) Save(sid, prefix string, state FlowState, ttl time.Duration) error {
	key := stateKey(sid, prefix)
	if err := s.cache.SetHashFields(key, state.toFields()); err != nil {
		return err
	}
	return s.cache.Expire(key, ttl)
}

// Clear удаляет состояние flow
func (s *RedisStore) Clear(sid, prefix string) error {
	return s.cache.Delete(stateKey(sid, prefix))
}
