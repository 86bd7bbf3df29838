package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrInvalidToken возвращается для просроченных и некорректных токенов
var ErrInvalidToken = errors.New("invalid token")

// SessionClaims содержит пользовательские поля токена сессии.
// SessionKey связывает токен с записью UserSession в базе.
type SessionClaims struct {
	UserID     uint   `json:"user_id"`
	SessionKey string `json:"session_key"`
	jwt.RegisteredClaims
}

// JWTService выпускает и проверяет токены сессий
type JWTService struct {
	secretKey  []byte
	expiration time.Duration
}

// NewJWTService создает сервис JWT
func NewJWTService(secretKey string, expiration time.Duration) (*JWTService, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("jwt secret key is required")
	}
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return &JWTService{
		secretKey:  []byte(secretKey),
		expiration: expiration,
	}, nil
}

// GenerateToken выпускает токен сессии для пользователя
func (s *JWTService) GenerateToken(userID uint, sessionKey string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID:     userID,
		SessionKey: sessionKey,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ParseToken проверяет подпись и срок токена и возвращает его claims
func (s *JWTService) ParseToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == 0 || claims.SessionKey == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
