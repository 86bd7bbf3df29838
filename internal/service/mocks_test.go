package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/cabinet-api/internal/domain/entity"
	"github.com/yourusername/cabinet-api/internal/service/emailflow"
	"github.com/yourusername/cabinet-api/pkg/wbapi"
)

// ============================================================================
// Моки репозиториев для тестирования сервисов
// ============================================================================

// MockUserRepository реализует repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*entity.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) EmailTakenByOther(email string, excludeID uint) (bool, error) {
	args := m.Called(email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Update(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateProfile(userID uint, updates map[string]interface{}) error {
	args := m.Called(userID, updates)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(userID uint, newPassword string) error {
	args := m.Called(userID, newPassword)
	return args.Error(0)
}

// MockPasswordResetRepository реализует repository.PasswordResetRepository
type MockPasswordResetRepository struct {
	mock.Mock
}

func (m *MockPasswordResetRepository) Create(req *entity.PasswordResetRequest) error {
	args := m.Called(req)
	return args.Error(0)
}

func (m *MockPasswordResetRepository) MarkAllUsed(userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockPasswordResetRepository) MarkUsed(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockPasswordResetRepository) GetLatestActiveByUserID(userID uint) (*entity.PasswordResetRequest, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PasswordResetRequest), args.Error(1)
}

func (m *MockPasswordResetRepository) ListByUserID(userID uint, limit int) ([]entity.PasswordResetRequest, error) {
	args := m.Called(userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.PasswordResetRequest), args.Error(1)
}

func (m *MockPasswordResetRepository) ListAll(limit int) ([]entity.PasswordResetRequest, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.PasswordResetRequest), args.Error(1)
}

// MockUserSessionRepository реализует repository.UserSessionRepository
type MockUserSessionRepository struct {
	mock.Mock
}

func (m *MockUserSessionRepository) Create(session *entity.UserSession) error {
	args := m.Called(session)
	return args.Error(0)
}

func (m *MockUserSessionRepository) DeactivateExpired(userID uint, now time.Time) (int64, error) {
	args := m.Called(userID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserSessionRepository) GetActive(userID uint, now time.Time) (*entity.UserSession, error) {
	args := m.Called(userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserSession), args.Error(1)
}

func (m *MockUserSessionRepository) Extend(session *entity.UserSession) error {
	args := m.Called(session)
	return args.Error(0)
}

func (m *MockUserSessionRepository) EndAll(userID uint, now time.Time) error {
	args := m.Called(userID, now)
	return args.Error(0)
}

func (m *MockUserSessionRepository) ListByUserID(userID uint, limit int) ([]entity.UserSession, error) {
	args := m.Called(userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.UserSession), args.Error(1)
}

func (m *MockUserSessionRepository) ListAll(limit int) ([]entity.UserSession, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.UserSession), args.Error(1)
}

// MockWBCabinetRepository реализует repository.WBCabinetRepository
type MockWBCabinetRepository struct {
	mock.Mock
}

func (m *MockWBCabinetRepository) Create(cabinet *entity.WBCabinet) error {
	args := m.Called(cabinet)
	return args.Error(0)
}

func (m *MockWBCabinetRepository) GetByID(id uint) (*entity.WBCabinet, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.WBCabinet), args.Error(1)
}

func (m *MockWBCabinetRepository) ListByUserID(userID uint) ([]entity.WBCabinet, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.WBCabinet), args.Error(1)
}

func (m *MockWBCabinetRepository) Update(cabinet *entity.WBCabinet) error {
	args := m.Called(cabinet)
	return args.Error(0)
}

func (m *MockWBCabinetRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockWBCabinetRepository) APIKeyTaken(userID uint, apiKey string, excludeID uint) (bool, error) {
	args := m.Called(userID, apiKey, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockWBCabinetRepository) APIKeyNameTaken(userID uint, apiKeyName string, excludeID uint) (bool, error) {
	args := m.Called(userID, apiKeyName, excludeID)
	return args.Bool(0), args.Error(1)
}

// MockCabinetInfoFetcher реализует CabinetInfoFetcher
type MockCabinetInfoFetcher struct {
	mock.Mock
}

func (m *MockCabinetInfoFetcher) FetchCabinetInfo(ctx context.Context, apiKey string) (*wbapi.CabinetInfo, error) {
	args := m.Called(ctx, apiKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wbapi.CabinetInfo), args.Error(1)
}

// ============================================================================
// Вспомогательные реализации для тестов EmailCodeService
// ============================================================================

// memFlowStore реализует emailflow.Store в памяти
type memFlowStore struct {
	mu   sync.Mutex
	data map[string]emailflow.FlowState
}

func newMemFlowStore() *memFlowStore {
	return &memFlowStore{data: make(map[string]emailflow.FlowState)}
}

func (s *memFlowStore) key(sid, prefix string) string { return sid + ":" + prefix }

func (s *memFlowStore) Load(sid, prefix string) (emailflow.FlowState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.data[s.key(sid, prefix)]
	return state, ok, nil
}

func (s *memFlowStore) Save(sid, prefix string, state emailflow.FlowState, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[s.key(sid, prefix)] = state
	return nil
}

func (s *memFlowStore) Clear(sid, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, s.key(sid, prefix))
	return nil
}

// stubClock позволяет двигать время вручную
type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

func (c *stubClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// capturingEmailService запоминает отправленные письма
type capturingEmailService struct {
	mu   sync.Mutex
	sent []capturedEmail
}

type capturedEmail struct {
	To             string
	Subject        string
	Message        string
	IdempotencyKey string
}

func (s *capturingEmailService) SendCode(ctx context.Context, toEmail, subject, message, idempotencyKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, capturedEmail{
		To:             toEmail,
		Subject:        subject,
		Message:        message,
		IdempotencyKey: idempotencyKey,
	})
	return nil
}

func (s *capturingEmailService) last() (capturedEmail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return capturedEmail{}, false
	}
	return s.sent[len(s.sent)-1], true
}
