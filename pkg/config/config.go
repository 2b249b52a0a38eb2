package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит все конфигурационные параметры приложения
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Backend   BackendConfig
	Progress  ProgressConfig
	Session   SessionConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Scheduler SchedulerConfig
	RateLimit RateLimitConfig
}

// AppConfig содержит общие настройки приложения
type AppConfig struct {
	Name        string
	Context     context.Context
	Environment string
	LogLevel    string
	Debug       bool
}

// IsProduction сообщает, запущено ли приложение в продакшене
func (c AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// HTTPConfig содержит настройки HTTP-сервера шлюза
type HTTPConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	// TrustProxy разрешает брать адрес клиента из X-Forwarded-For и X-Real-IP.
	// Включать только за прокси, который сам выставляет эти заголовки.
	TrustProxy bool
}

// BackendConfig содержит настройки удаленного REST API Pryve
type BackendConfig struct {
	BaseURL      string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// ProgressPath - шаблон эндпоинта прогресса загрузки, к нему дописывается sessionId
	ProgressPath string
	// AdminFetchLimit - размер выборки при загрузке полного списка пользователей
	AdminFetchLimit int
}

// ProgressConfig содержит настройки отслеживания длительных операций
type ProgressConfig struct {
	PollInterval  time.Duration
	ClearDelay    time.Duration
	MaxDuration   time.Duration
	WordThreshold int
}

// SessionConfig содержит настройки cookie сессии администратора
type SessionConfig struct {
	TTL    time.Duration
	Secure bool
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Enabled    bool
	Host       string
	Port       string
	Password   string
	DB         int
	DefaultTTL time.Duration
}

// KafkaConfig содержит настройки для работы с Kafka
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topics  KafkaTopics
}

// KafkaTopics содержит названия топиков Kafka
type KafkaTopics struct {
	Progress   string
	UserStatus string
}

// SchedulerConfig содержит настройки для планировщика задач
type SchedulerConfig struct {
	AnalyticsRefreshCron string
	ServiceToken         string
}

// RateLimitConfig содержит настройки ограничения частоты запросов
type RateLimitConfig struct {
	Limit  int
	Period int
	// AdminLimit - лимит запросов одного администратора к защищенным маршрутам за Period
	AdminLimit int
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	// Загружаем .env файл, если он существует
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "development")

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "pryve-admin"),
			Environment: env,
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Debug:       getEnvAsBool("APP_DEBUG", env != "production"),
		},
		HTTP: HTTPConfig{
			Port:            getEnv("HTTP_PORT", "8080"),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 5*time.Second),
			AllowedOrigins:  getEnvAsSlice("HTTP_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			TrustProxy:      getEnvAsBool("HTTP_TRUST_PROXY", false),
		},
		Backend: BackendConfig{
			BaseURL:         strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://localhost:5000"), "/"),
			Timeout:         getEnvAsDuration("BACKEND_TIMEOUT", 30*time.Second),
			RetryMax:        getEnvAsInt("BACKEND_RETRY_MAX", 2),
			RetryWaitMin:    getEnvAsDuration("BACKEND_RETRY_WAIT_MIN", 200*time.Millisecond),
			RetryWaitMax:    getEnvAsDuration("BACKEND_RETRY_WAIT_MAX", 2*time.Second),
			ProgressPath:    strings.TrimRight(getEnv("AI_CONFIG_PROGRESS", "/api/v1/ai-config/progress"), "/"),
			AdminFetchLimit: getEnvAsInt("BACKEND_ADMIN_FETCH_LIMIT", 1000),
		},
		Progress: ProgressConfig{
			PollInterval:  getEnvAsDuration("PROGRESS_POLL_INTERVAL", 500*time.Millisecond),
			ClearDelay:    getEnvAsDuration("PROGRESS_CLEAR_DELAY", 3*time.Second),
			MaxDuration:   getEnvAsDuration("PROGRESS_MAX_DURATION", 5*time.Minute),
			WordThreshold: getEnvAsInt("PROGRESS_WORD_THRESHOLD", 500),
		},
		Session: SessionConfig{
			TTL:    getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
			Secure: getEnvAsBool("SESSION_SECURE", env == "production"),
		},
		Redis: RedisConfig{
			Enabled:    getEnvAsBool("REDIS_ENABLED", false),
			Host:       getEnv("REDIS_HOST", "localhost"),
			Port:       getEnv("REDIS_PORT", "6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			DefaultTTL: getEnvAsDuration("REDIS_DEFAULT_TTL", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", false),
			Brokers: getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topics: KafkaTopics{
				Progress:   getEnv("KAFKA_TOPIC_PROGRESS", "ai_config_progress"),
				UserStatus: getEnv("KAFKA_TOPIC_USER_STATUS", "user_status_changed"),
			},
		},
		Scheduler: SchedulerConfig{
			AnalyticsRefreshCron: getEnv("SCHEDULER_ANALYTICS_CRON", "0 */5 * * * *"),
			ServiceToken:         getEnv("SCHEDULER_SERVICE_TOKEN", ""),
		},
		RateLimit: RateLimitConfig{
			Limit:      getEnvAsInt("RATE_LIMIT_AUTH_LIMIT", 20),
			Period:     getEnvAsInt("RATE_LIMIT_AUTH_PERIOD", 60),
			AdminLimit: getEnvAsInt("RATE_LIMIT_ADMIN_LIMIT", 600),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("BACKEND_BASE_URL is required")
	}
	if c.Progress.PollInterval <= 0 {
		return fmt.Errorf("PROGRESS_POLL_INTERVAL must be positive")
	}
	if c.Backend.AdminFetchLimit <= 0 {
		return fmt.Errorf("BACKEND_ADMIN_FETCH_LIMIT must be positive")
	}
	return nil
}

// RedisAddr возвращает адрес подключения к Redis
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Утилитарные функции для получения переменных окружения

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
