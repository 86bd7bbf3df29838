// Package wbapi содержит клиент общего API Wildberries.
package wbapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// SellerInfoURL - эндпоинт информации о продавце
const SellerInfoURL = "https://common-api.wildberries.ru/api/v1/seller-info"

const defaultTimeout = 10 * time.Second

// Ошибки при работе с API Wildberries. Тексты уходят пользователю как есть.
type CabinetError struct {
	Message string
}

func (e *CabinetError) Error() string {
	return e.Message
}

const (
	msgBadConnection = "Не удалось связаться с Wildberries. Попробуйте позже."
	msgWBError       = "Wildberries отклонил API-ключ. Проверьте ключ."
	msgWBBadAnswer   = "Wildberries вернул некорректный ответ. Попробуйте позже."
)

// CabinetInfo - сведения о кабинете по API-ключу
type CabinetInfo struct {
	CabinetName      string
	CabinetCreatedAt *time.Time
}

// Client запрашивает информацию о кабинете у Wildberries
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создает клиент WB API. Пустой baseURL означает боевой адрес.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = SellerInfoURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// FetchCabinetInfo запрашивает у WB информацию о кабинете по API-ключу.
// Невалидный ключ или странный ответ - *CabinetError с текстом для пользователя.
func (c *Client) FetchCabinetInfo(ctx context.Context, apiKey string) (*CabinetInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &CabinetError{Message: msgBadConnection}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &CabinetError{Message: msgWBError}
	}

	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, &CabinetError{Message: msgWBBadAnswer}
	}

	// WB в разных версиях отдаёт имя и дату под разными ключами
	name := firstNonEmpty(data, "cabinetName", "organizationName", "name")
	if name == "" {
		name = "Без имени"
	}

	var createdAt *time.Time
	if raw := firstNonEmpty(data, "createdAt", "createDate", "expired_at"); raw != "" {
		if parsed, parseErr := parseISOTime(raw); parseErr == nil {
			createdAt = &parsed
		}
	}

	return &CabinetInfo{
		CabinetName:      name,
		CabinetCreatedAt: createdAt,
	}, nil
}

func firstNonEmpty(data map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if value, ok := data[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func parseISOTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", raw)
}
