package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/pkg/config"
	"github.com/pryve/pryve-admin/pkg/logger"
)

// RefreshLockKey - распределенная блокировка обновления сводки
const RefreshLockKey = "lock:analytics:refresh"

const refreshTimeout = time.Minute

// Locker выдает распределенную блокировку
type Locker interface {
	GetLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// SchedulerService представляет сервис планировщика задач
type SchedulerService struct {
	analytics *AnalyticsService
	locker    Locker
	cron      *cron.Cron
	logger    logger.Logger
	config    *config.SchedulerConfig
}

// NewSchedulerService создает новый экземпляр сервиса планировщика. locker может быть nil,
// если запущен один экземпляр планировщика.
func NewSchedulerService(analytics *AnalyticsService, locker Locker, cfg *config.SchedulerConfig, log logger.Logger) *SchedulerService {
	// Создаем планировщик с поддержкой секунд
	cronScheduler := cron.New(cron.WithSeconds())

	return &SchedulerService{
		analytics: analytics,
		locker:    locker,
		cron:      cronScheduler,
		logger:    log,
		config:    cfg,
	}
}

// Start запускает планировщик задач
func (s *SchedulerService) Start(ctx context.Context) error {
	s.logger.Info("Starting scheduler service")

	if err := s.registerTasks(); err != nil {
		return err
	}

	s.cron.Start()

	// Слушаем сигнал завершения
	go func() {
		<-ctx.Done()
		s.logger.Info("Stopping scheduler service")
		<-s.cron.Stop().Done()
	}()

	return nil
}

func (s *SchedulerService) registerTasks() error {
	if _, err := s.cron.AddFunc(s.config.AnalyticsRefreshCron, s.refreshAnalytics); err != nil {
		s.logger.Error("Failed to schedule analytics refresh task", err, logger.Fields{
			"schedule": s.config.AnalyticsRefreshCron,
		})
		return err
	}
	return nil
}

// refreshAnalytics обновляет снимок сводки от имени сервисного токена
func (s *SchedulerService) refreshAnalytics() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if s.config.ServiceToken == "" {
		s.logger.Warn("Skipping analytics refresh: service token is not configured")
		return
	}

	if s.locker != nil {
		acquired, err := s.locker.GetLock(ctx, RefreshLockKey, refreshTimeout)
		if err != nil {
			s.logger.Error("Failed to acquire analytics refresh lock", err)
			return
		}
		if !acquired {
			s.logger.Debug("Analytics refresh is running elsewhere")
			return
		}
		defer func() {
			if err := s.locker.ReleaseLock(context.Background(), RefreshLockKey); err != nil {
				s.logger.Warn("Failed to release analytics refresh lock", logger.Fields{"error": err.Error()})
			}
		}()
	}

	s.logger.Info("Running analytics refresh task")
	resp := s.analytics.Refresh(apiclient.WithToken(ctx, s.config.ServiceToken))
	if !resp.Success {
		s.logger.Warn("Analytics refresh failed", logger.Fields{"message": resp.Message, "error": resp.Error})
		return
	}
	s.logger.Info("Analytics refresh completed", logger.Fields{"total_users": resp.Data.Users.TotalUsers})
}
