package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pryve/pryve-admin/pkg/config"
	"github.com/pryve/pryve-admin/pkg/logger"
)

// Redis представляет клиент для работы с Redis
type Redis struct {
	Client     *redis.Client
	DefaultTTL time.Duration
	Logger     logger.Logger
}

// NewRedis создает новое подключение к Redis
func NewRedis(ctx context.Context, cfg *config.RedisConfig, log logger.Logger) (*Redis, error) {
	log.Info("Connecting to Redis", logger.Fields{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// Проверяем соединение
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	log.Info("Successfully connected to Redis")

	return New(client, cfg.DefaultTTL, log), nil
}

// New оборачивает готовый клиент
func New(client *redis.Client, defaultTTL time.Duration, log logger.Logger) *Redis {
	return &Redis{
		Client:     client,
		DefaultTTL: defaultTTL,
		Logger:     log,
	}
}

// Close закрывает соединение с Redis
func (r *Redis) Close() error {
	r.Logger.Info("Closing Redis connection")
	return r.Client.Close()
}

// Ping проверяет доступность Redis
func (r *Redis) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// Set сохраняет значение в кэше. Нулевой ttl заменяется DefaultTTL.
func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = r.DefaultTTL
	}

	if err := r.Client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.Logger.Error("Failed to set Redis key", err, logger.Fields{"key": key})
		return fmt.Errorf("failed to set Redis key %s: %w", key, err)
	}

	r.Logger.Debug("Redis key set", logger.Fields{"key": key, "ttl": ttl.String()})
	return nil
}

// Get получает значение из кэша. Отсутствующий ключ возвращает пустую строку без ошибки.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		r.Logger.Debug("Redis key not found", logger.Fields{"key": key})
		return "", nil
	}
	if err != nil {
		r.Logger.Error("Failed to get Redis key", err, logger.Fields{"key": key})
		return "", fmt.Errorf("failed to get Redis key %s: %w", key, err)
	}
	return value, nil
}

// SetJSON сериализует значение в JSON и сохраняет его
func (r *Redis) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}
	return r.Set(ctx, key, payload, ttl)
}

// GetJSON читает значение и разбирает его в dst. Возвращает false, если ключа нет.
func (r *Redis) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	value, err := r.Get(ctx, key)
	if err != nil || value == "" {
		return false, err
	}
	if err := json.Unmarshal([]byte(value), dst); err != nil {
		r.Logger.Warn("Corrupted cache entry", logger.Fields{"key": key, "error": err.Error()})
		return false, nil
	}
	return true, nil
}

// Delete удаляет значение из кэша
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.Client.Del(ctx, key).Err(); err != nil {
		r.Logger.Error("Failed to delete Redis key", err, logger.Fields{"key": key})
		return fmt.Errorf("failed to delete Redis key %s: %w", key, err)
	}
	return nil
}

// GetLock получает блокировку с таймаутом
func (r *Redis) GetLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.Client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		r.Logger.Error("Failed to acquire Redis lock", err, logger.Fields{
			"key": key,
			"ttl": ttl.String(),
		})
		return false, fmt.Errorf("failed to acquire Redis lock %s: %w", key, err)
	}

	if !ok {
		r.Logger.Debug("Redis lock already held", logger.Fields{"key": key})
	}
	return ok, nil
}

// ReleaseLock освобождает блокировку
func (r *Redis) ReleaseLock(ctx context.Context, key string) error {
	return r.Delete(ctx, key)
}
