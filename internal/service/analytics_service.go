package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/internal/messaging"
	"github.com/pryve/pryve-admin/pkg/logger"
)

// OverviewCacheKey - ключ снимка сводки в Redis
const OverviewCacheKey = "analytics:overview"

// OverviewFailedMessage возвращается, если ни один источник не дал ответа
const OverviewFailedMessage = "Failed to load dashboard overview"

// SnapshotCache хранит JSON-снимки
type SnapshotCache interface {
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	Delete(ctx context.Context, key string) error
}

// upstreamFailure переносит неуспешный ответ бэкенда через errgroup
type upstreamFailure struct {
	source  string
	message string
	detail  string
}

func (e *upstreamFailure) Error() string {
	return fmt.Sprintf("%s: %s", e.source, e.detail)
}

// AnalyticsService собирает сводку для главной страницы
type AnalyticsService struct {
	client *apiclient.Client
	cache  SnapshotCache
	ttl    time.Duration
	logger logger.Logger
	now    func() time.Time
}

// NewAnalyticsService создает новый экземпляр AnalyticsService. cache может быть nil,
// тогда сводка собирается при каждом запросе.
func NewAnalyticsService(client *apiclient.Client, cache SnapshotCache, ttl time.Duration, log logger.Logger) *AnalyticsService {
	return &AnalyticsService{
		client: client,
		cache:  cache,
		ttl:    ttl,
		logger: log,
		now:    time.Now,
	}
}

// Overview возвращает закешированную сводку или собирает новую
func (s *AnalyticsService) Overview(ctx context.Context) apiclient.Response[domain.AnalyticsOverview] {
	if s.cache != nil {
		var cached domain.AnalyticsOverview
		found, err := s.cache.GetJSON(ctx, OverviewCacheKey, &cached)
		if err != nil {
			s.logger.Warn("Failed to read overview snapshot", logger.Fields{"error": err.Error()})
		}
		if found {
			return apiclient.OK("", cached)
		}
	}
	return s.Refresh(ctx)
}

// Refresh параллельно запрашивает счетчики пользователей, AI-конфигурацию и
// количество рассылок и сохраняет снимок. Первая неудача отменяет остальные запросы.
func (s *AnalyticsService) Refresh(ctx context.Context) apiclient.Response[domain.AnalyticsOverview] {
	overview := domain.AnalyticsOverview{GeneratedAt: s.now().UTC()}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		resp := s.client.Do(gctx, apiclient.Request{
			Method: http.MethodGet,
			Path:   pathUsers,
			Query:  pageQuery(1, 1),
		})
		if !resp.Success {
			return &upstreamFailure{source: "users", message: resp.Message, detail: resp.Error}
		}
		if len(resp.Counts) > 0 {
			if err := json.Unmarshal(resp.Counts, &overview.Users); err != nil {
				return &upstreamFailure{source: "users", message: apiclient.UnexpectedDataMessage, detail: err.Error()}
			}
		}
		return nil
	})

	g.Go(func() error {
		resp := apiclient.Call[domain.AIConfig](gctx, s.client, apiclient.Request{
			Method: http.MethodGet,
			Path:   pathAIConfig,
		})
		if !resp.Success {
			return &upstreamFailure{source: "ai-config", message: resp.Message, detail: resp.Error}
		}
		overview.SystemPromptActive = resp.Data.SystemPromptActive
		return nil
	})

	g.Go(func() error {
		resp := s.client.Do(gctx, apiclient.Request{
			Method: http.MethodGet,
			Path:   pathNotifications,
			Query:  pageQuery(1, 1),
		})
		if !resp.Success {
			return &upstreamFailure{source: "notifications", message: resp.Message, detail: resp.Error}
		}
		if resp.Pagination != nil {
			overview.TotalNotifications = resp.Pagination.TotalItems
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn("Overview refresh failed", logger.Fields{"error": err.Error()})
		var failure *upstreamFailure
		if errors.As(err, &failure) {
			return apiclient.Failure[domain.AnalyticsOverview](failure.message, failure.detail)
		}
		return apiclient.Failure[domain.AnalyticsOverview](OverviewFailedMessage, err.Error())
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, OverviewCacheKey, overview, s.ttl); err != nil {
			s.logger.Warn("Failed to store overview snapshot", logger.Fields{"error": err.Error()})
		}
	}

	return apiclient.OK("", overview)
}

// Invalidate удаляет закешированную сводку
func (s *AnalyticsService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, OverviewCacheKey)
}

// HandleUserStatusChanged сбрасывает сводку, когда меняется статус пользователя
func (s *AnalyticsService) HandleUserStatusChanged(ctx context.Context, event messaging.UserStatusEvent) error {
	s.logger.Debug("Invalidating overview after status change", logger.Fields{
		"user_id": event.UserID,
		"to":      event.To,
	})
	return s.Invalidate(ctx)
}
