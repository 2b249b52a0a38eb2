package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Стандартные ошибки
var (
	ErrTokenNotFound = errors.New("token not found")
	ErrExpiredToken  = errors.New("token has expired")
	ErrOpaqueToken   = errors.New("token is not a JWT")
)

// Claims содержит данные администратора из токена бэкенда
type Claims struct {
	UserID string `json:"userId,omitempty"`
	ID     string `json:"id,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenInspector читает claims токенов бэкенда. Подпись не проверяется, поэтому claims
// годятся только для срока жизни: ключ подписи есть только у бэкенда.
type TokenInspector struct {
	parser *jwt.Parser
	now    func() time.Time
}

// NewTokenInspector создает новый TokenInspector
func NewTokenInspector() *TokenInspector {
	return &TokenInspector{
		parser: jwt.NewParser(),
		now:    time.Now,
	}
}

// Inspect разбирает токен. Для токенов, не являющихся JWT, возвращает ErrOpaqueToken,
// для просроченных - ErrExpiredToken вместе с claims.
func (i *TokenInspector) Inspect(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenNotFound
	}

	claims := &Claims{}
	if _, _, err := i.parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}

	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(i.now()) {
		return claims, ErrExpiredToken
	}
	return claims, nil
}

// SessionExpiry возвращает срок жизни cookie: не позже истечения токена и не позже now+ttl
func (i *TokenInspector) SessionExpiry(tokenString string, ttl time.Duration) time.Time {
	expiry := i.now().Add(ttl)

	claims, err := i.Inspect(tokenString)
	if err != nil || claims.ExpiresAt == nil {
		return expiry
	}
	if claims.ExpiresAt.Before(expiry) {
		return claims.ExpiresAt.Time
	}
	return expiry
}
