package service

import (
	"errors"

	"github.com/yourusername/cabinet-api/internal/domain/entity"
	"github.com/yourusername/cabinet-api/internal/domain/repository"
	apperrors "github.com/yourusername/cabinet-api/internal/pkg/errors"
)

// ResetLogRow - строка отчёта по журналу восстановления пароля
type ResetLogRow struct {
	ID        uint
	UserID    uint
	Username  string
	Email     string
	Code      string
	ExpiresAt string
	IsUsed    bool
	CreatedAt string
}

// SessionRow - строка отчёта по пользовательским сессиям
type SessionRow struct {
	ID          uint
	UserID      uint
	Username    string
	Email       string
	StartTime   string
	EndTime     string
	DurationSec int64
	IsActive    bool
}

const timeLayout = "2006-01-02 15:04:05"

// ReportService собирает административные отчёты по журналу восстановления
// пароля и истории сессий
type ReportService struct {
	resetRepo   repository.PasswordResetRepository
	sessionRepo repository.UserSessionRepository
	userRepo    repository.UserRepository
}

// NewReportService создает сервис отчётов
func NewReportService(
	resetRepo repository.PasswordResetRepository,
	sessionRepo repository.UserSessionRepository,
	userRepo repository.UserRepository,
) *ReportService {
	return &ReportService{
		resetRepo:   resetRepo,
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
	}
}

// ResetLog возвращает журнал восстановления пароля по всем пользователям
func (s *ReportService) ResetLog(limit int) ([]ResetLogRow, error) {
	if limit <= 0 {
		limit = 1000
	}
	requests, err := s.resetRepo.ListAll(limit)
	if err != nil {
		return nil, err
	}

	users := newUserLookup(s.userRepo)
	rows := make([]ResetLogRow, 0, len(requests))
	for _, req := range requests {
		username, email := users.get(req.UserID)
		rows = append(rows, ResetLogRow{
			ID:        req.ID,
			UserID:    req.UserID,
			Username:  username,
			Email:     email,
			Code:      req.Code,
			ExpiresAt: req.ExpiresAt.Format(timeLayout),
			IsUsed:    req.IsUsed,
			CreatedAt: req.CreatedAt.Format(timeLayout),
		})
	}
	return rows, nil
}

// Sessions возвращает историю сессий по всем пользователям
func (s *ReportService) Sessions(limit int) ([]SessionRow, error) {
	if limit <= 0 {
		limit = 1000
	}
	sessions, err := s.sessionRepo.ListAll(limit)
	if err != nil {
		return nil, err
	}

	users := newUserLookup(s.userRepo)
	rows := make([]SessionRow, 0, len(sessions))
	for _, session := range sessions {
		username, email := users.get(session.UserID)
		rows = append(rows, SessionRow{
			ID:          session.ID,
			UserID:      session.UserID,
			Username:    username,
			Email:       email,
			StartTime:   session.StartTime.Format(timeLayout),
			EndTime:     session.EndTime.Format(timeLayout),
			DurationSec: session.DurationSec,
			IsActive:    session.IsActive,
		})
	}
	return rows, nil
}

// userLookup кеширует пользователей в пределах одного отчёта
type userLookup struct {
	repo  repository.UserRepository
	cache map[uint]*entity.User
}

func newUserLookup(repo repository.UserRepository) *userLookup {
	return &userLookup{repo: repo, cache: make(map[uint]*entity.User)}
}

func (l *userLookup) get(userID uint) (username, email string) {
	user, ok := l.cache[userID]
	if !ok {
		loaded, err := l.repo.GetByID(userID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return "", ""
		}
		user = loaded
		l.cache[userID] = user
	}
	if user == nil {
		return "", ""
	}
	return user.Username, user.Email
}
