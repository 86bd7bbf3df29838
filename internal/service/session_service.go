package service

import (
	"errors"
	"log"
	"time"

	"github.com/yourusername/cabinet-api/internal/domain/entity"
	"github.com/yourusername/cabinet-api/internal/domain/repository"
	apperrors "github.com/yourusername/cabinet-api/internal/pkg/errors"
)

// SessionService ведёт пользовательские сессии со скользящим окном:
// каждая активность продлевает окно на полный срок жизни.
type SessionService struct {
	sessionRepo repository.UserSessionRepository
	lifetime    time.Duration
}

// NewSessionService создает сервис пользовательских сессий
func NewSessionService(sessionRepo repository.UserSessionRepository, lifetime time.Duration) *SessionService {
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	return &SessionService{
		sessionRepo: sessionRepo,
		lifetime:    lifetime,
	}
}

// Lifetime возвращает срок жизни сессии
func (s *SessionService) Lifetime() time.Duration {
	return s.lifetime
}

// Touch продлевает активную сессию пользователя.
//
//   - Истёкшие активные сессии деактивируются.
//   - Если активная сессия есть, её окно сдвигается: end_time = now + срок жизни.
//   - Если активной нет и createIfMissing=true, создаётся новая.
//   - Если активной нет и createIfMissing=false, возвращается apperrors.ErrNotFound.
//
// signup/login вызывают Touch с createIfMissing=true, остальные запросы
// с createIfMissing=false: истёкшая сессия означает принудительный logout.
func (s *SessionService) Touch(userID uint, sessionKey string, createIfMissing bool) (*entity.UserSession, error) {
	now := time.Now()

	if _, err := s.sessionRepo.DeactivateExpired(userID, now); err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.GetActive(userID, now)
	if err == nil {
		session.EndTime = now.Add(s.lifetime)
		session.DurationSec = int64(session.EndTime.Sub(session.StartTime) / time.Second)
		session.SessionKey = sessionKey
		if err := s.sessionRepo.Extend(session); err != nil {
			return nil, err
		}
		return session, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	if !createIfMissing {
		return nil, apperrors.ErrNotFound
	}

	session = &entity.UserSession{
		UserID:      userID,
		SessionKey:  sessionKey,
		StartTime:   now,
		EndTime:     now.Add(s.lifetime),
		DurationSec: int64(s.lifetime / time.Second),
		IsActive:    true,
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}
	log.Printf("[SessionService] Создана сессия для пользователя ID=%d", userID)
	return session, nil
}

// EndAll прерывает все активные сессии пользователя (logout)
func (s *SessionService) EndAll(userID uint) error {
	return s.sessionRepo.EndAll(userID, time.Now())
}

// History возвращает историю сессий пользователя
func (s *SessionService) History(userID uint, limit int) ([]entity.UserSession, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.sessionRepo.ListByUserID(userID, limit)
}
