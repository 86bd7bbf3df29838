package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/yourusername/cabinet-api/internal/domain/entity"
	"github.com/yourusername/cabinet-api/internal/domain/repository"
	apperrors "github.com/yourusername/cabinet-api/internal/pkg/errors"
	"github.com/yourusername/cabinet-api/internal/pkg/validator"
	"github.com/yourusername/cabinet-api/pkg/wbapi"
)

// CabinetInfoFetcher запрашивает у WB сведения о кабинете по API-ключу
type CabinetInfoFetcher interface {
	FetchCabinetInfo(ctx context.Context, apiKey string) (*wbapi.CabinetInfo, error)
}

// CabinetView - представление кабинета для фронта. Полный ключ не отдаём.
type CabinetView struct {
	ID                 uint   `json:"id"`
	ShortAPIKey        string `json:"short_api_key"`
	APIKeyName         string `json:"api_key_name"`
	CabinetName        string `json:"cabinet_name"`
	CabinetCreatedAt   string `json:"cabinet_created_at"`   // для отображения
	CabinetCreatedDate string `json:"cabinet_created_date"` // для input type="date"
}

// CabinetCheckResult - результат проверки API-ключа через WB
type CabinetCheckResult struct {
	Message             string
	HasChanges          bool
	NewCabinetName      string
	NewCabinetCreatedAt string
	Item                *CabinetView
}

// CabinetUpdateParams - поля редактирования кабинета.
// Пустой APIKey означает "ключ не менять".
type CabinetUpdateParams struct {
	APIKey             string
	APIKeyName         string
	CabinetName        string
	CabinetCreatedDate string
}

// CabinetService управляет кабинетами WB пользователя
type CabinetService struct {
	cabinetRepo repository.WBCabinetRepository
	fetcher     CabinetInfoFetcher
}

// NewCabinetService создает сервис кабинетов WB
func NewCabinetService(cabinetRepo repository.WBCabinetRepository, fetcher CabinetInfoFetcher) *CabinetService {
	return &CabinetService{
		cabinetRepo: cabinetRepo,
		fetcher:     fetcher,
	}
}

// List возвращает все кабинеты пользователя
func (s *CabinetService) List(userID uint) ([]CabinetView, error) {
	cabinets, err := s.cabinetRepo.ListByUserID(userID)
	if err != nil {
		return nil, err
	}
	views := make([]CabinetView, 0, len(cabinets))
	for i := range cabinets {
		views = append(views, serializeCabinet(&cabinets[i]))
	}
	return views, nil
}

// Add добавляет кабинет: проверяет уникальность ключа и имени в пределах
// пользователя, валидирует ключ через WB и сохраняет.
func (s *CabinetService) Add(ctx context.Context, userID uint, apiKey, apiKeyName string) (*CabinetView, error) {
	apiKey = strings.TrimSpace(apiKey)
	apiKeyName = strings.TrimSpace(apiKeyName)

	if apiKey == "" || apiKeyName == "" {
		return nil, &validator.ValidationError{Violations: []string{MsgCabinetFillAPIField}}
	}

	if taken, err := s.cabinetRepo.APIKeyNameTaken(userID, apiKeyName, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, &validator.ValidationError{Violations: []string{MsgCabinetHaveAPIKeyName}}
	}

	if taken, err := s.cabinetRepo.APIKeyTaken(userID, apiKey, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, &validator.ValidationError{Violations: []string{MsgCabinetHaveAPIKey}}
	}

	info, err := s.fetcher.FetchCabinetInfo(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	cabinet := &entity.WBCabinet{
		UserID:           userID,
		APIKey:           apiKey,
		APIKeyName:       apiKeyName,
		CabinetName:      info.CabinetName,
		CabinetCreatedAt: info.CabinetCreatedAt,
	}
	if err := s.cabinetRepo.Create(cabinet); err != nil {
		return nil, err
	}

	log.Printf("[CabinetService] Добавлен кабинет ID=%d для пользователя ID=%d", cabinet.ID, userID)
	view := serializeCabinet(cabinet)
	return &view, nil
}

// Delete удаляет кабинет пользователя
func (s *CabinetService) Delete(ctx context.Context, userID, cabinetID uint) error {
	cabinet, err := s.ownedCabinet(userID, cabinetID)
	if err != nil {
		return err
	}
	return s.cabinetRepo.Delete(cabinet.ID)
}

// Check проверяет API-ключ кабинета через WB.
// sync=false: только сообщаем о расхождениях, фронт решает.
// sync=true: сразу обновляем cabinet_name / cabinet_created_at из WB.
func (s *CabinetService) Check(ctx context.Context, userID, cabinetID uint, sync bool) (*CabinetCheckResult, error) {
	cabinet, err := s.ownedCabinet(userID, cabinetID)
	if err != nil {
		return nil, err
	}

	info, err := s.fetcher.FetchCabinetInfo(ctx, cabinet.APIKey)
	if err != nil {
		return nil, err
	}

	changedName := info.CabinetName != "" && info.CabinetName != cabinet.CabinetName
	changedDate := info.CabinetCreatedAt != nil &&
		(cabinet.CabinetCreatedAt == nil || !info.CabinetCreatedAt.Equal(*cabinet.CabinetCreatedAt))

	if !changedName && !changedDate {
		view := serializeCabinet(cabinet)
		return &CabinetCheckResult{
			Message: MsgCabinetAPIActive,
			Item:    &view,
		}, nil
	}

	if !sync {
		newCreatedAt := ""
		if info.CabinetCreatedAt != nil {
			newCreatedAt = info.CabinetCreatedAt.Local().Format("2006-01-02 15:04")
		}
		view := serializeCabinet(cabinet)
		return &CabinetCheckResult{
			Message:             MsgCabinetAPIActiveDiff,
			HasChanges:          true,
			NewCabinetName:      info.CabinetName,
			NewCabinetCreatedAt: newCreatedAt,
			Item:                &view,
		}, nil
	}

	if changedName {
		cabinet.CabinetName = info.CabinetName
	}
	if changedDate {
		cabinet.CabinetCreatedAt = info.CabinetCreatedAt
	}
	if err := s.cabinetRepo.Update(cabinet); err != nil {
		return nil, err
	}

	view := serializeCabinet(cabinet)
	return &CabinetCheckResult{
		Message: MsgCabinetSynced,
		Item:    &view,
	}, nil
}

// Update редактирует кабинет. Все найденные ошибки возвращаются вместе.
// Если меняется API-ключ, имя и дата кабинета берутся из WB, ручные
// правки этих полей игнорируются.
func (s *CabinetService) Update(ctx context.Context, userID, cabinetID uint, params CabinetUpdateParams) (*CabinetView, error) {
	cabinet, err := s.ownedCabinet(userID, cabinetID)
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(params.APIKey)
	apiKeyName := strings.TrimSpace(params.APIKeyName)
	cabinetName := strings.TrimSpace(params.CabinetName)
	createdDate := strings.TrimSpace(params.CabinetCreatedDate)

	var violations []string
	apiKeyChanged := apiKey != ""

	if apiKeyChanged {
		if taken, checkErr := s.cabinetRepo.APIKeyTaken(userID, apiKey, cabinet.ID); checkErr != nil {
			return nil, checkErr
		} else if taken {
			violations = append(violations, MsgCabinetAPIKeyDuplicate)
		} else {
			info, fetchErr := s.fetcher.FetchCabinetInfo(ctx, apiKey)
			if fetchErr != nil {
				violations = append(violations, fetchErr.Error())
			} else {
				cabinet.APIKey = apiKey
				if info.CabinetName != "" {
					cabinet.CabinetName = info.CabinetName
				}
				if info.CabinetCreatedAt != nil {
					cabinet.CabinetCreatedAt = info.CabinetCreatedAt
				}
			}
		}
	}

	if apiKeyName == "" {
		violations = append(violations, MsgCabinetKeyNameRequired)
	} else if taken, checkErr := s.cabinetRepo.APIKeyNameTaken(userID, apiKeyName, cabinet.ID); checkErr != nil {
		return nil, checkErr
	} else if taken {
		violations = append(violations, MsgCabinetHaveAPIKeyName)
	} else {
		cabinet.APIKeyName = apiKeyName
	}

	if !apiKeyChanged {
		if cabinetName != cabinet.CabinetName {
			if cabinetName == "" {
				violations = append(violations, MsgCabinetNameRequired)
			} else {
				cabinet.CabinetName = cabinetName
			}
		}

		currentDate := ""
		if cabinet.CabinetCreatedAt != nil {
			currentDate = cabinet.CabinetCreatedAt.Local().Format("2006-01-02")
		}
		if createdDate != currentDate {
			if createdDate == "" {
				violations = append(violations, MsgCabinetDateRequired)
			} else if parsed, parseErr := time.ParseInLocation("2006-01-02", createdDate, time.Local); parseErr != nil {
				violations = append(violations, MsgCabinetDateInvalid)
			} else {
				cabinet.CabinetCreatedAt = &parsed
			}
		}
	}

	if len(violations) > 0 {
		return nil, &validator.ValidationError{Violations: violations}
	}

	if err := s.cabinetRepo.Update(cabinet); err != nil {
		return nil, err
	}

	view := serializeCabinet(cabinet)
	return &view, nil
}

// ownedCabinet возвращает кабинет, если он принадлежит пользователю.
// Чужой кабинет неотличим от несуществующего.
func (s *CabinetService) ownedCabinet(userID, cabinetID uint) (*entity.WBCabinet, error) {
	cabinet, err := s.cabinetRepo.GetByID(cabinetID)
	if err != nil {
		return nil, err
	}
	if cabinet.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	return cabinet, nil
}

func serializeCabinet(cabinet *entity.WBCabinet) CabinetView {
	createdAt := ""
	createdDate := ""
	if cabinet.CabinetCreatedAt != nil {
		local := cabinet.CabinetCreatedAt.Local()
		createdAt = local.Format("2006-01-02 15:04")
		createdDate = local.Format("2006-01-02")
	}
	return CabinetView{
		ID:                 cabinet.ID,
		ShortAPIKey:        ShortAPIKey(cabinet.APIKey),
		APIKeyName:         cabinet.APIKeyName,
		CabinetName:        cabinet.CabinetName,
		CabinetCreatedAt:   createdAt,
		CabinetCreatedDate: createdDate,
	}
}
