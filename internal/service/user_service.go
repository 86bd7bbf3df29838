package service

import (
	"time"

	"github.com/yourusername/cabinet-api/internal/domain/entity"
	"github.com/yourusername/cabinet-api/internal/domain/repository"
	"github.com/yourusername/cabinet-api/internal/pkg/validator"
)

// ProfileView - данные профиля для фронта. Полный email не отдаём.
type ProfileView struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	MaskedEmail string `json:"masked_email"`
	DateJoined  string `json:"date_joined"`
}

// UserService отвечает за профиль пользователя
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService создает сервис профиля
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Profile возвращает профиль пользователя с маскированным email
func (s *UserService) Profile(userID uint) (*ProfileView, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	return &ProfileView{
		ID:          user.ID,
		Username:    user.Username,
		MaskedEmail: MaskEmail(user.Email),
		DateJoined:  user.DateJoined.Format(time.RFC3339),
	}, nil
}

// GetByID возвращает пользователя по ID
func (s *UserService) GetByID(userID uint) (*entity.User, error) {
	return s.userRepo.GetByID(userID)
}

// UpdateUsername меняет имя пользователя
func (s *UserService) UpdateUsername(userID uint, username string) (string, error) {
	validated, err := validator.ValidateUsername(username)
	if err != nil {
		return "", err
	}
	if err := s.userRepo.UpdateProfile(userID, map[string]interface{}{"username": validated}); err != nil {
		return "", err
	}
	return validated, nil
}
