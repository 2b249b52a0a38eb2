package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/internal/pagination"
	"github.com/pryve/pryve-admin/pkg/logger"
	"github.com/pryve/pryve-admin/pkg/validator"
)

// UserStatusPublisher публикует событие о смене статуса пользователя
type UserStatusPublisher interface {
	PublishUserStatusChanged(ctx context.Context, userID string, from, to domain.UserStatus, changedBy string) error
}

// AdminQuery - параметры клиентского списка администраторов
type AdminQuery struct {
	Page    int
	Limit   int
	Status  domain.UserStatus
	Refresh bool
}

// userView - состояние списков пользователей одного администратора
type userView struct {
	users *pagination.ServerList[domain.User, domain.UserCounts]

	mu           sync.Mutex
	admins       *pagination.ClientList[domain.User]
	adminCounts  domain.UserCounts
	adminStatus  domain.UserStatus
	adminsLoaded bool
}

// UserService управляет списками пользователей и их статусами
type UserService struct {
	client          *apiclient.Client
	validator       *validator.CustomValidator
	events          UserStatusPublisher
	views           *viewStore[*userView]
	adminFetchLimit int
	logger          logger.Logger
}

// NewUserService создает новый экземпляр UserService. events может быть nil.
func NewUserService(client *apiclient.Client, v *validator.CustomValidator, events UserStatusPublisher,
	viewTTL time.Duration, adminFetchLimit int, log logger.Logger) *UserService {
	if adminFetchLimit <= 0 {
		adminFetchLimit = 1000
	}
	s := &UserService{
		client:          client,
		validator:       v,
		events:          events,
		adminFetchLimit: adminFetchLimit,
		logger:          log,
	}
	s.views = newViewStore(viewTTL, func() *userView {
		return &userView{
			users:  pagination.NewServerList[domain.User, domain.UserCounts](s.fetchUsers, pagination.DefaultLimit, log),
			admins: pagination.NewClientList[domain.User](pagination.DefaultLimit),
		}
	})
	return s
}

// List возвращает страницу пользователей вместе с агрегатами по всей коллекции.
// Смена limit возвращает на первую страницу.
func (s *UserService) List(ctx context.Context, owner string, page, limit int) apiclient.Response[[]domain.User] {
	view := s.view(owner)

	resp := view.users.Load(ctx, page, limit)
	if !resp.Success {
		return resp
	}
	return withListState(resp, view.users.Info(), view.users.Counts())
}

// ChangeStatus меняет статус пользователя. После успешного ответа бэкенда элемент
// и корзины counts обновляются на месте, без повторной загрузки списка.
func (s *UserService) ChangeStatus(ctx context.Context, owner, userID string, req domain.UserStatusUpdateRequest) apiclient.Response[json.RawMessage] {
	if err := s.validator.Validate(req); err != nil {
		return validationFailure[json.RawMessage](err)
	}

	resp := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPatch,
		Path:   userStatusPath(userID),
		Body:   req,
	})
	if !resp.Success {
		s.logger.Warn("User status change rejected", logger.Fields{
			"user_id": userID,
			"status":  req.Status,
			"message": resp.Message,
		})
		return resp
	}

	view := s.view(owner)
	byID := func(u domain.User) bool { return u.ID == userID }

	var from domain.UserStatus
	if view.users.Update(byID, func(u *domain.User) {
		from = u.Status
		u.Status = req.Status
	}) && from != "" {
		view.users.AdjustCounts(func(c *domain.UserCounts) { c.MoveStatus(from, req.Status) })
	}

	view.mu.Lock()
	var adminFrom domain.UserStatus
	if view.admins.Update(byID, func(u *domain.User) {
		adminFrom = u.Status
		u.Status = req.Status
	}) > 0 {
		view.adminCounts.MoveStatus(adminFrom, req.Status)
		if from == "" {
			from = adminFrom
		}
	}
	view.mu.Unlock()

	s.logger.Info("User status changed", logger.Fields{
		"user_id":    userID,
		"from":       from,
		"to":         req.Status,
		"changed_by": owner,
	})

	if s.events != nil {
		if err := s.events.PublishUserStatusChanged(ctx, userID, from, req.Status, owner); err != nil {
			s.logger.Error("Failed to publish user status event", err, logger.Fields{"user_id": userID})
		}
	}

	return resp
}

// Admins возвращает страницу администраторов. Полная коллекция загружается один раз
// и фильтруется локально; Refresh перезагружает ее.
func (s *UserService) Admins(ctx context.Context, owner string, q AdminQuery) apiclient.Response[[]domain.User] {
	view := s.view(owner)

	view.mu.Lock()
	loaded := view.adminsLoaded
	view.mu.Unlock()

	if !loaded || q.Refresh {
		resp := apiclient.Call[[]domain.User](ctx, s.client, apiclient.Request{
			Method: http.MethodGet,
			Path:   pathUsers,
			Query:  pageQuery(1, s.adminFetchLimit),
		})
		if !resp.Success {
			return resp
		}

		admins := lo.Filter(resp.Data, func(u domain.User, _ int) bool { return u.IsAdmin() })

		view.mu.Lock()
		view.admins.SetItems(admins)
		view.adminCounts = countStatuses(admins)
		view.adminsLoaded = true
		view.mu.Unlock()
	}

	view.mu.Lock()
	defer view.mu.Unlock()

	page := q.Page
	if q.Status != view.adminStatus {
		// новый фильтр возвращает на первую страницу
		view.adminStatus = q.Status
		view.admins.SetFilter(statusFilter(q.Status))
		page = 0
	}
	info := view.admins.Navigate(page, q.Limit)

	return withListState(apiclient.OK("", view.admins.Page()), info, view.adminCounts)
}

// Release забывает состояние списков администратора, например при выходе
func (s *UserService) Release(owner string) {
	s.views.release(owner)
}

func (s *UserService) view(owner string) *userView {
	return s.views.get(owner)
}

func (s *UserService) fetchUsers(ctx context.Context, page, limit int) apiclient.Response[[]domain.User] {
	return apiclient.Call[[]domain.User](ctx, s.client, apiclient.Request{
		Method: http.MethodGet,
		Path:   pathUsers,
		Query:  pageQuery(page, limit),
	})
}

func statusFilter(status domain.UserStatus) func(domain.User) bool {
	if status == "" {
		return nil
	}
	return func(u domain.User) bool { return u.Status == status }
}

func countStatuses(users []domain.User) domain.UserCounts {
	return domain.UserCounts{
		TotalUsers:     len(users),
		ActiveUsers:    lo.CountBy(users, func(u domain.User) bool { return u.Status == domain.UserStatusActive }),
		SuspendedUsers: lo.CountBy(users, func(u domain.User) bool { return u.Status == domain.UserStatusSuspended }),
		PremiumUsers:   lo.CountBy(users, func(u domain.User) bool { return u.IsPremium }),
	}
}

// withListState кладет текущее окно списка и агрегаты в конверт ответа
func withListState[T any, C any](resp apiclient.Response[T], info domain.PaginationInfo, counts C) apiclient.Response[T] {
	resp.Pagination = &info
	if raw, err := json.Marshal(counts); err == nil {
		resp.Counts = raw
	}
	return resp
}

func ownerKey(owner, surface string) string {
	return owner + ":" + surface
}
