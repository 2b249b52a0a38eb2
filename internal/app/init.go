// Package app собирает компоненты шлюза из конфигурации. Экземпляры создаются один раз
// в корне процесса и передаются дальше явно.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pryve/pryve-admin/internal/api"
	"github.com/pryve/pryve-admin/internal/api/handlers"
	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/internal/messaging"
	"github.com/pryve/pryve-admin/internal/notify"
	"github.com/pryve/pryve-admin/internal/progress"
	"github.com/pryve/pryve-admin/internal/service"
	"github.com/pryve/pryve-admin/internal/session"
	"github.com/pryve/pryve-admin/pkg/auth"
	"github.com/pryve/pryve-admin/pkg/cache"
	"github.com/pryve/pryve-admin/pkg/config"
	"github.com/pryve/pryve-admin/pkg/loading"
	"github.com/pryve/pryve-admin/pkg/logger"
	kafkaclient "github.com/pryve/pryve-admin/pkg/messaging"
	"github.com/pryve/pryve-admin/pkg/validator"
)

const (
	// viewTTL - сколько живет состояние списков администратора без обращений
	viewTTL = 30 * time.Minute
	// noticeTTL - сколько непрочитанное уведомление ждет дашборд
	noticeTTL = 10 * time.Minute
	// userStatusGroup - группа потребителей событий смены статуса
	userStatusGroup = "pryve-admin-analytics"
)

// Messaging содержит клиенты брокера. Поля nil, если Kafka выключена.
type Messaging struct {
	Producer *kafkaclient.KafkaProducer
	Events   *messaging.EventPublisher
}

// Application содержит все компоненты приложения
type Application struct {
	Config    *config.Config
	Logger    logger.Logger
	Redis     *cache.Redis
	Messaging *Messaging
	Loading   *loading.Counter
	Feed      *notify.Feed
	Client    *apiclient.Client
	Trackers  *progress.Registry
	Inspector *auth.TokenInspector
	Sessions  session.Store
	Services  *api.Services

	consumers []*kafkaclient.KafkaConsumer
}

// NewApplication создает новое приложение с инициализированными компонентами
func NewApplication(ctx context.Context, cfg *config.Config, log logger.Logger) (*Application, error) {
	app := &Application{
		Config:    cfg,
		Logger:    log,
		Loading:   loading.NewCounter(),
		Feed:      notify.NewFeed(noticeTTL, log),
		Inspector: auth.NewTokenInspector(),
	}

	// Инициализация Redis
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedis(ctx, &cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		app.Redis = redisCache
	}

	// Привязки токенов общие для всех экземпляров, если есть Redis
	if app.Redis != nil {
		app.Sessions = session.NewRedisStore(app.Redis)
	} else {
		app.Sessions = session.NewMemoryStore(time.Hour)
	}

	// Инициализация Kafka
	app.Messaging = initMessaging(ctx, cfg, log)

	app.Client = apiclient.New(apiclient.Config{
		BaseURL:      cfg.Backend.BaseURL,
		Timeout:      cfg.Backend.Timeout,
		RetryMax:     cfg.Backend.RetryMax,
		RetryWaitMin: cfg.Backend.RetryWaitMin,
		RetryWaitMax: cfg.Backend.RetryWaitMax,
	}, log, apiclient.InFlight(app.Loading), apiclient.Logging(log))

	app.Trackers = initTrackers(app)
	app.Services = initServices(app)

	return app, nil
}

// Server создает HTTP-сервер шлюза
func (app *Application) Server() *api.Server {
	pingers := map[string]handlers.Pinger{}
	var redisClient *redis.Client
	if app.Redis != nil {
		pingers["redis"] = app.Redis
		redisClient = app.Redis.Client
	}

	return api.NewServer(app.Config, app.Logger, app.Inspector, app.Services, &api.Dependencies{
		Loading:  app.Loading,
		Feed:     app.Feed,
		Redis:    redisClient,
		Sessions: app.Sessions,
		Pingers:  pingers,
	})
}

// Scheduler создает планировщик фоновых задач
func (app *Application) Scheduler() *service.SchedulerService {
	var locker service.Locker
	if app.Redis != nil {
		locker = app.Redis
	}
	return service.NewSchedulerService(app.Services.AnalyticsService, locker, &app.Config.Scheduler, app.Logger)
}

// UserStatusConsumer создает потребителя событий смены статуса, который сбрасывает
// снимок аналитики. Возвращает nil, если Kafka выключена.
func (app *Application) UserStatusConsumer() *messaging.UserStatusConsumer {
	if !app.Config.Kafka.Enabled {
		return nil
	}

	reader := kafkaclient.NewKafkaConsumer(app.Config.Kafka.Topics.UserStatus, userStatusGroup, &app.Config.Kafka, app.Logger)
	app.consumers = append(app.consumers, reader)

	return messaging.NewUserStatusConsumer(reader, app.Services.AnalyticsService.HandleUserStatusChanged, app.Logger)
}

// Close закрывает все соединения с внешними сервисами
func (app *Application) Close() {
	if app.Trackers != nil {
		app.Trackers.Close()
	}

	for _, c := range app.consumers {
		if err := c.Close(); err != nil {
			app.Logger.Error("Error closing Kafka consumer", err)
		}
	}

	if app.Messaging.Producer != nil {
		if err := app.Messaging.Producer.Close(); err != nil {
			app.Logger.Error("Error closing Kafka producer", err)
		}
	}

	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Error("Error closing Redis connection", err)
		}
	}
}

// Инициализация Kafka. Недоступный брокер не мешает старту: события только логируются.
func initMessaging(ctx context.Context, cfg *config.Config, log logger.Logger) *Messaging {
	if !cfg.Kafka.Enabled {
		return &Messaging{}
	}

	topics := []string{cfg.Kafka.Topics.Progress, cfg.Kafka.Topics.UserStatus}
	if err := kafkaclient.CreateTopics(ctx, cfg.Kafka.Brokers, topics, log); err != nil {
		log.Warn("Failed to create Kafka topics", logger.Fields{"error": err.Error()})
	}

	producer := kafkaclient.NewKafkaProducer(&cfg.Kafka, log)
	return &Messaging{
		Producer: producer,
		Events:   messaging.NewEventPublisher(producer, cfg.Kafka.Topics, log),
	}
}

// Инициализация отслеживания длительных операций
func initTrackers(app *Application) *progress.Registry {
	cfg := app.Config

	fetcher := service.NewProgressFetcher(app.Client, cfg.Backend.ProgressPath)
	poller := progress.NewPoller(fetcher, progress.PollerConfig{
		Interval:    cfg.Progress.PollInterval,
		MaxDuration: cfg.Progress.MaxDuration,
	}, app.Logger)

	var sink progress.EventSink = progress.NopSink{}
	if app.Messaging.Events != nil {
		sink = app.Messaging.Events
	}

	return progress.NewRegistry(poller, app.Feed, sink, cfg.Progress.ClearDelay, app.Logger)
}

// Инициализация сервисов
func initServices(app *Application) *api.Services {
	cfg := app.Config
	v := validator.NewValidator()

	var events service.UserStatusPublisher
	if app.Messaging.Events != nil {
		events = app.Messaging.Events
	}

	var snapshots service.SnapshotCache
	if app.Redis != nil {
		snapshots = app.Redis
	}

	return &api.Services{
		AuthService:         service.NewAuthService(app.Client, v, app.Logger),
		UserService:         service.NewUserService(app.Client, v, events, viewTTL, cfg.Backend.AdminFetchLimit, app.Logger),
		AIConfigService:     service.NewAIConfigService(app.Client, v, app.Trackers, cfg.Progress.WordThreshold, app.Logger),
		ToneService:         service.NewToneService(app.Client, v, app.Logger),
		NotificationService: service.NewNotificationService(app.Client, v, viewTTL, app.Logger),
		SystemRuleService:   service.NewSystemRuleService(app.Client, v, viewTTL, app.Logger),
		AnalyticsService:    service.NewAnalyticsService(app.Client, snapshots, cfg.Redis.DefaultTTL, app.Logger),
	}
}
