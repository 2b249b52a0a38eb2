package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/pryve/pryve-admin/pkg/errors"
	"github.com/pryve/pryve-admin/pkg/logger"
)

// RateLimitStrategy определяет стратегию ограничения запросов
type RateLimitStrategy string

const (
	// RateLimitIP ограничивает запросы по IP-адресу
	RateLimitIP RateLimitStrategy = "ip"
	// RateLimitUser ограничивает запросы по администратору. Требует Authenticate перед собой.
	RateLimitUser RateLimitStrategy = "user"
)

// RateLimiterConfig содержит настройки для ограничителя запросов
type RateLimiterConfig struct {
	// Максимальное количество запросов в период
	Limit int
	// Период времени для ограничения (в секундах)
	Period int
	// Стратегия ограничения
	Strategy RateLimitStrategy
	// Prefix отделяет счетчики разных групп маршрутов
	Prefix string
}

// RateLimiter предоставляет middleware для ограничения частоты запросов
type RateLimiter struct {
	config     RateLimiterConfig
	logger     logger.Logger
	redis      *redis.Client
	inMemLimit map[string]*limitInfo
	mu         sync.Mutex
	now        func() time.Time
}

// limitInfo хранит информацию о лимитах для in-memory реализации
type limitInfo struct {
	count     int
	resetTime time.Time
}

// NewRateLimiter создает новый экземпляр RateLimiter. Без Redis счетчики хранятся в памяти.
func NewRateLimiter(config RateLimiterConfig, redisClient *redis.Client, logger logger.Logger) *RateLimiter {
	if config.Period <= 0 {
		config.Period = 60
	}
	if config.Prefix == "" {
		config.Prefix = "rate_limit"
	}
	return &RateLimiter{
		config:     config,
		redis:      redisClient,
		logger:     logger,
		inMemLimit: make(map[string]*limitInfo),
		now:        time.Now,
	}
}

// Limit применяет ограничение частоты запросов. Лимит 0 отключает ограничение.
func (m *RateLimiter) Limit(next http.Handler) http.Handler {
	if m.config.Limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := m.getKey(r)

		remaining, resetTime, limited, err := m.isLimited(r.Context(), key)
		if err != nil {
			// При ошибке хранилища счетчиков запрос пропускается
			m.logger.Error("Rate limiter error", err, logger.Fields{"key": key})
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.config.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if limited {
			retryAfter := int(resetTime.Sub(m.now()).Seconds())
			w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
			m.logger.Warn("Rate limit exceeded", logger.Fields{"key": key})
			WriteError(w, apperrors.TooManyRequests())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getKey формирует ключ для ограничения в зависимости от стратегии
func (m *RateLimiter) getKey(r *http.Request) string {
	if m.config.Strategy == RateLimitUser {
		if owner := OwnerFrom(r.Context()); owner != "" {
			return fmt.Sprintf("%s:user:%s", m.config.Prefix, owner)
		}
	}
	return fmt.Sprintf("%s:ip:%s", m.config.Prefix, clientIP(r))
}

// isLimited проверяет, превышен ли лимит для данного ключа
func (m *RateLimiter) isLimited(ctx context.Context, key string) (int, time.Time, bool, error) {
	if m.redis != nil {
		return m.isLimitedRedis(ctx, key)
	}
	return m.isLimitedInMemory(key)
}

// isLimitedRedis считает запросы в фиксированном окне Period
func (m *RateLimiter) isLimitedRedis(ctx context.Context, key string) (int, time.Time, bool, error) {
	now := m.now()
	period := time.Duration(m.config.Period) * time.Second
	window := now.Unix() / int64(m.config.Period)
	windowKey := fmt.Sprintf("%s:%d", key, window)

	// Используем транзакцию для атомарного обновления счетчика
	pipe := m.redis.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, period)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, now, false, err
	}

	count, err := incr.Result()
	if err != nil {
		return 0, now, false, err
	}

	resetTime := time.Unix((window+1)*int64(m.config.Period), 0)
	remaining := max(m.config.Limit-int(count), 0)

	return remaining, resetTime, count > int64(m.config.Limit), nil
}

// isLimitedInMemory проверяет лимит с использованием in-memory хранилища
func (m *RateLimiter) isLimitedInMemory(key string) (int, time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	period := time.Duration(m.config.Period) * time.Second

	info, exists := m.inMemLimit[key]
	switch {
	case !exists:
		info = &limitInfo{count: 1, resetTime: now.Add(period)}
		m.inMemLimit[key] = info
	case now.After(info.resetTime):
		info.count = 1
		info.resetTime = now.Add(period)
	default:
		info.count++
	}

	remaining := max(m.config.Limit-info.count, 0)
	return remaining, info.resetTime, info.count > m.config.Limit, nil
}

// cleanupExpired удаляет устаревшие записи in-memory реализации
func (m *RateLimiter) cleanupExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, info := range m.inMemLimit {
		if now.After(info.resetTime) {
			delete(m.inMemLimit, key)
		}
	}
}

// StartCleanupTask запускает периодическую очистку устаревших записей
func (m *RateLimiter) StartCleanupTask(ctx context.Context) {
	if m.redis != nil {
		return
	}

	ticker := time.NewTicker(time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.cleanupExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// clientIP возвращает адрес клиента из RemoteAddr. Заголовки прокси сюда не читаются:
// RemoteAddr уже переписан middleware.RealIP.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
