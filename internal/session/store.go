// Package session связывает токен администратора с профилем, который бэкенд вернул при входе.
// Токен хранится только в виде SHA-256, владелец берется из привязки, а не из клиентских данных.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/pkg/cache"
)

const keyPrefix = "session:"

// ErrExpired возвращается при попытке привязать токен с истекшим сроком
var ErrExpired = errors.New("session already expired")

// Store хранит привязки токен -> администратор
type Store interface {
	// Bind привязывает токен к администратору на ttl
	Bind(ctx context.Context, token string, user domain.SessionUser, ttl time.Duration) error
	// Lookup возвращает администратора токена. ok=false, если токен не выдавался через вход.
	Lookup(ctx context.Context, token string) (user domain.SessionUser, ok bool, err error)
	// Revoke удаляет привязку
	Revoke(ctx context.Context, token string) error
}

// Key возвращает ключ хранилища для токена
func Key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// MemoryStore хранит привязки в памяти процесса
type MemoryStore struct {
	items *gocache.Cache
}

// NewMemoryStore создает хранилище, которое удаляет истекшие привязки раз в cleanup
func NewMemoryStore(cleanup time.Duration) *MemoryStore {
	return &MemoryStore{items: gocache.New(gocache.NoExpiration, cleanup)}
}

func (s *MemoryStore) Bind(_ context.Context, token string, user domain.SessionUser, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrExpired
	}
	s.items.Set(Key(token), user, ttl)
	return nil
}

func (s *MemoryStore) Lookup(_ context.Context, token string) (domain.SessionUser, bool, error) {
	v, found := s.items.Get(Key(token))
	if !found {
		return domain.SessionUser{}, false, nil
	}
	user, ok := v.(domain.SessionUser)
	return user, ok, nil
}

func (s *MemoryStore) Revoke(_ context.Context, token string) error {
	s.items.Delete(Key(token))
	return nil
}

// RedisStore хранит привязки в Redis, чтобы их видели все экземпляры шлюза
type RedisStore struct {
	redis *cache.Redis
}

// NewRedisStore создает хранилище поверх клиента Redis
func NewRedisStore(redis *cache.Redis) *RedisStore {
	return &RedisStore{redis: redis}
}

func (s *RedisStore) Bind(ctx context.Context, token string, user domain.SessionUser, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrExpired
	}
	return s.redis.SetJSON(ctx, Key(token), user, ttl)
}

func (s *RedisStore) Lookup(ctx context.Context, token string) (domain.SessionUser, bool, error) {
	var user domain.SessionUser
	found, err := s.redis.GetJSON(ctx, Key(token), &user)
	if err != nil {
		return user, false, fmt.Errorf("session lookup: %w", err)
	}
	return user, found, nil
}

func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	return s.redis.Delete(ctx, Key(token))
}
