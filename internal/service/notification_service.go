package service

import (
	"context"
	"net/http"
	"time"

	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/internal/pagination"
	"github.com/pryve/pryve-admin/pkg/logger"
	"github.com/pryve/pryve-admin/pkg/validator"
)

// NotificationCounts - агрегаты истории рассылок в том виде, в каком их присылает бэкенд
type NotificationCounts map[string]int

// NotificationService управляет рассылкой уведомлений пользователям
type NotificationService struct {
	client    *apiclient.Client
	validator *validator.CustomValidator
	views     *viewStore[*pagination.ServerList[domain.Notification, NotificationCounts]]
	logger    logger.Logger
}

// NewNotificationService создает новый экземпляр NotificationService
func NewNotificationService(client *apiclient.Client, v *validator.CustomValidator, viewTTL time.Duration, log logger.Logger) *NotificationService {
	s := &NotificationService{
		client:    client,
		validator: v,
		logger:    log,
	}
	s.views = newViewStore(viewTTL, func() *pagination.ServerList[domain.Notification, NotificationCounts] {
		return pagination.NewServerList[domain.Notification, NotificationCounts](s.fetch, pagination.DefaultLimit, log)
	})
	return s
}

// List возвращает страницу истории рассылок
func (s *NotificationService) List(ctx context.Context, owner string, page, limit int) apiclient.Response[[]domain.Notification] {
	list := s.views.get(owner)

	resp := list.Load(ctx, page, limit)
	if !resp.Success {
		return resp
	}
	return withListState(resp, list.Info(), list.Counts())
}

// Send отправляет уведомление выбранной аудитории
func (s *NotificationService) Send(ctx context.Context, owner string, req domain.NotificationSendRequest) apiclient.Response[domain.Notification] {
	if err := s.validator.Validate(req); err != nil {
		return validationFailure[domain.Notification](err)
	}

	resp := apiclient.Call[domain.Notification](ctx, s.client, apiclient.Request{
		Method: http.MethodPost,
		Path:   pathNotifications,
		Body:   req,
	})
	if !resp.Success {
		s.logger.Warn("Notification send rejected", logger.Fields{
			"audience": req.Audience,
			"message":  resp.Message,
		})
		return resp
	}

	s.logger.Info("Notification sent", logger.Fields{
		"notification_id": resp.Data.ID,
		"audience":        req.Audience,
		"sent_by":         owner,
	})
	return resp
}

// Release забывает состояние списка администратора
func (s *NotificationService) Release(owner string) {
	s.views.release(owner)
}

func (s *NotificationService) fetch(ctx context.Context, page, limit int) apiclient.Response[[]domain.Notification] {
	return apiclient.Call[[]domain.Notification](ctx, s.client, apiclient.Request{
		Method: http.MethodGet,
		Path:   pathNotifications,
		Query:  pageQuery(page, limit),
	})
}
