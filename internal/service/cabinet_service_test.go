package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/cabinet-api/internal/domain/entity"
	apperrors "github.com/yourusername/cabinet-api/internal/pkg/errors"
	"github.com/yourusername/cabinet-api/internal/pkg/validator"
	"github.com/yourusername/cabinet-api/pkg/wbapi"
)

func TestCabinetService_Add_Success(t *testing.T) {
	mockCabinetRepo := new(MockWBCabinetRepository)
	mockFetcher := new(MockCabinetInfoFetcher)

	createdAt := time.Date(2023, 5, 10, 12, 0, 0, 0, time.UTC)
	mockCabinetRepo.On("APIKeyNameTaken", uint(1), "Основной", uint(0)).Return(false, nil)
	mockCabinetRepo.On("APIKeyTaken", uint(1), "key-123", uint(0)).Return(false, nil)
	mockFetcher.On("FetchCabinetInfo", mock.Anything, "key-123").Return(&wbapi.CabinetInfo{
		CabinetName:      "ООО Ромашка",
		CabinetCreatedAt: &createdAt,
	}, nil)
	mockCabinetRepo.On("Create", mock.AnythingOfType("*entity.WBCabinet")).Return(nil)

	cabinetService := NewCabinetService(mockCabinetRepo, mockFetcher)

	view, err := cabinetService.Add(context.Background(), 1, " key-123 ", " Основной ")

	require.NoError(t, err)
	assert.Equal(t, "Основной", view.APIKeyName)
	assert.Equal(t, "ООО Ромашка", view.CabinetName)
	assert.Equal(t, ShortAPIKey("key-123"), view.ShortAPIKey, "Полный ключ не должен попадать в ответ")
	mockCabinetRepo.AssertExpectations(t)
	mockFetcher.AssertExpectations(t)
}

func TestCabinetService_Add_EmptyFields(t *testing.T) {
	cabinetService := NewCabinetService(new(MockWBCabinetRepository), new(MockCabinetInfoFetcher))

	view, err := cabinetService.Add(context.Background(), 1, "  ", "")

	require.Error(t, err)
	assert.Nil(t, view)
	assert.Contains(t, err.Error(), MsgCabinetFillAPIField)
}

func TestCabinetService_Add_DuplicateKey(t *testing.T) {
	mockCabinetRepo := new(MockWBCabinetRepository)
	mockFetcher := new(MockCabinetInfoFetcher)

	mockCabinetRepo.On("APIKeyNameTaken", uint(1), "Основной", uint(0)).Return(false, nil)
	mockCabinetRepo.On("APIKeyTaken", uint(1), "key-123", uint(0)).Return(true, nil)

	cabinetService := NewCabinetService(mockCabinetRepo, mockFetcher)

	view, err := cabinetService.Add(context.Background(), 1, "key-123", "Основной")

	require.Error(t, err)
	assert.Nil(t, view)
	assert.Contains(t, err.Error(), MsgCabinetHaveAPIKey)
	mockFetcher.AssertNotCalled(t, "FetchCabinetInfo", mock.Anything, mock.Anything)
}

func TestCabinetService_Delete_ForeignCabinet(t *testing.T) {
	mockCabinetRepo := new(MockWBCabinetRepository)

	foreign := &entity.WBCabinet{ID: 9, UserID: 2}
	mockCabinetRepo.On("GetByID", uint(9)).Return(foreign, nil)

	cabinetService := NewCabinetService(mockCabinetRepo, new(MockCabinetInfoFetcher))

	err := cabinetService.Delete(context.Background(), 1, 9)

	assert.ErrorIs(t, err, apperrors.ErrNotFound, "Чужой кабинет неотличим от несуществующего")
	mockCabinetRepo.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestCabinetService_Check_NoChanges(t *testing.T) {
	mockCabinetRepo := new(MockWBCabinetRepository)
	mockFetcher := new(MockCabinetInfoFetcher)

	createdAt := time.Date(2023, 5, 10, 12, 0, 0, 0, time.UTC)
	cabinet := &entity.WBCabinet{
		ID: 3, UserID: 1, APIKey: "key-123",
		CabinetName: "ООО Ромашка", CabinetCreatedAt: &createdAt,
	}
	mockCabinetRepo.On("GetByID", uint(3)).Return(cabinet, nil)
	mockFetcher.On("FetchCabinetInfo", mock.Anything, "key-123").Return(&wbapi.CabinetInfo{
		CabinetName:      "ООО Ромашка",
		CabinetCreatedAt: &createdAt,
	}, nil)

	cabinetService := NewCabinetService(mockCabinetRepo, mockFetcher)

	result, err := cabinetService.Check(context.Background(), 1, 3, false)

	require.NoError(t, err)
	assert.False(t, result.HasChanges)
	assert.Equal(t, MsgCabinetAPIActive, result.Message)
	mockCabinetRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestCabinetService_Check_ChangesWithoutSync(t *testing.T) {
	mockCabinetRepo := new(MockWBCabinetRepository)
	mockFetcher := new(MockCabinetInfoFetcher)

	createdAt := time.Date(2023, 5, 10, 12, 0, 0, 0, time.UTC)
	cabinet := &entity.WBCabinet{
		ID: 3, UserID: 1, APIKey: "key-123",
		CabinetName: "Старое имя", CabinetCreatedAt: &createdAt,
	}
	mockCabinetRepo.On("GetByID", uint(3)).Return(cabinet, nil)
	mockFetcher.On("FetchCabinetInfo", mock.Anything, "key-123").Return(&wbapi.CabinetInfo{
		CabinetName:      "Новое имя",
		CabinetCreatedAt: &createdAt,
	}, nil)

	cabinetService := NewCabinetService(mockCabinetRepo, mockFetcher)

	result, err := cabinetService.Check(context.Background(), 1, 3, false)

	require.NoError(t, err)
	assert.True(t, result.HasChanges)
	assert.Equal(t, MsgCabinetAPIActiveDiff, result.Message)
	assert.Equal(t, "Новое имя", result.NewCabinetName)
	assert.Equal(t, "Старое имя", cabinet.CabinetName, "Без sync данные не меняются")
	mockCabinetRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestCabinetService_Check_ChangesWithSync(t *testing.T) {
	mockCabinetRepo := new(MockWBCabinetRepository)
	mockFetcher := new(MockCabinetInfoFetcher)

	createdAt := time.Date(2023, 5, 10, 12, 0, 0, 0, time.UTC)
	cabinet := &entity.WBCabinet{
		ID: 3, UserID: 1, APIKey: "key-123",
		CabinetName: "Старое имя", CabinetCreatedAt: &createdAt,
	}
	mockCabinetRepo.On("GetByID", uint(3)).Return(cabinet, nil)
	mockFetcher.On("FetchCabinetInfo", mock.Anything, "key-123").Return(&wbapi.CabinetInfo{
		CabinetName:      "Новое имя",
		CabinetCreatedAt: &createdAt,
	}, nil)
	mockCabinetRepo.On("Update", cabinet).Return(nil)

	cabinetService := NewCabinetService(mockCabinetRepo, mockFetcher)

	result, err := cabinetService.Check(context.Background(), 1, 3, true)

	require.NoError(t, err)
	assert.Equal(t, MsgCabinetSynced, result.Message)
	assert.Equal(t, "Новое имя", cabinet.CabinetName, "При sync данные обновляются из WB")
	mockCabinetRepo.AssertExpectations(t)
}

func TestCabinetService_Update_CollectsViolations(t *testing.T) {
	mockCabinetRepo := new(MockWBCabinetRepository)

	cabinet := &entity.WBCabinet{ID: 3, UserID: 1, APIKey: "key-123", APIKeyName: "Основной", CabinetName: "Имя"}
	mockCabinetRepo.On("GetByID", uint(3)).Return(cabinet, nil)

	cabinetService := NewCabinetService(mockCabinetRepo, new(MockCabinetInfoFetcher))

	// Пустое имя ключа и пустое имя кабинета: обе претензии вместе
	view, err := cabinetService.Update(context.Background(), 1, 3, CabinetUpdateParams{
		APIKeyName:  "",
		CabinetName: "",
	})

	require.Error(t, err)
	assert.Nil(t, view)

	var validationErr *validator.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Violations, MsgCabinetKeyNameRequired)
	mockCabinetRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestCabinetService_Update_NewKeyPullsDataFromWB(t *testing.T) {
	mockCabinetRepo := new(MockWBCabinetRepository)
	mockFetcher := new(MockCabinetInfoFetcher)

	cabinet := &entity.WBCabinet{ID: 3, UserID: 1, APIKey: "old-key", APIKeyName: "Основной", CabinetName: "Старое имя"}
	newCreatedAt := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

	mockCabinetRepo.On("GetByID", uint(3)).Return(cabinet, nil)
	mockCabinetRepo.On("APIKeyTaken", uint(1), "new-key", uint(3)).Return(false, nil)
	mockCabinetRepo.On("APIKeyNameTaken", uint(1), "Основной", uint(3)).Return(false, nil)
	mockFetcher.On("FetchCabinetInfo", mock.Anything, "new-key").Return(&wbapi.CabinetInfo{
		CabinetName:      "Имя из WB",
		CabinetCreatedAt: &newCreatedAt,
	}, nil)
	mockCabinetRepo.On("Update", cabinet).Return(nil)

	cabinetService := NewCabinetService(mockCabinetRepo, mockFetcher)

	// Ручные правки имени и даты при смене ключа игнорируются
	view, err := cabinetService.Update(context.Background(), 1, 3, CabinetUpdateParams{
		APIKey:             "new-key",
		APIKeyName:         "Основной",
		CabinetName:        "Ручное имя",
		CabinetCreatedDate: "2020-01-01",
	})

	require.NoError(t, err)
	assert.Equal(t, "new-key", cabinet.APIKey)
	assert.Equal(t, "Имя из WB", view.CabinetName, "При смене ключа имя берётся из WB")
	mockCabinetRepo.AssertExpectations(t)
}
