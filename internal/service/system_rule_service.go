package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/internal/pagination"
	"github.com/pryve/pryve-admin/pkg/logger"
	"github.com/pryve/pryve-admin/pkg/validator"
)

// RuleQuery - параметры клиентского списка правил
type RuleQuery struct {
	Page    int
	Limit   int
	Search  string
	Refresh bool
}

type ruleView struct {
	mu     sync.Mutex
	rules  *pagination.ClientList[domain.SystemRule]
	search string
	loaded bool
}

// SystemRuleService управляет правилами системного промпта
type SystemRuleService struct {
	client    *apiclient.Client
	validator *validator.CustomValidator
	views     *viewStore[*ruleView]
	logger    logger.Logger
}

// NewSystemRuleService создает новый экземпляр SystemRuleService
func NewSystemRuleService(client *apiclient.Client, v *validator.CustomValidator, viewTTL time.Duration, log logger.Logger) *SystemRuleService {
	return &SystemRuleService{
		client:    client,
		validator: v,
		views: newViewStore(viewTTL, func() *ruleView {
			return &ruleView{rules: pagination.NewClientList[domain.SystemRule](pagination.DefaultLimit)}
		}),
		logger: log,
	}
}

// List возвращает страницу правил. Коллекция загружается целиком и режется локально.
func (s *SystemRuleService) List(ctx context.Context, owner string, q RuleQuery) apiclient.Response[[]domain.SystemRule] {
	view := s.views.get(owner)

	view.mu.Lock()
	loaded := view.loaded
	view.mu.Unlock()

	if !loaded || q.Refresh {
		resp := apiclient.Call[[]domain.SystemRule](ctx, s.client, apiclient.Request{
			Method: http.MethodGet,
			Path:   pathSystemRules,
		})
		if !resp.Success {
			return resp
		}

		view.mu.Lock()
		view.rules.SetItems(resp.Data)
		view.loaded = true
		view.mu.Unlock()
	}

	view.mu.Lock()
	defer view.mu.Unlock()

	page := q.Page
	if search := strings.ToLower(strings.TrimSpace(q.Search)); search != view.search {
		// новый поиск возвращает на первую страницу
		view.search = search
		view.rules.SetFilter(searchFilter(search))
		page = 0
	}
	info := view.rules.Navigate(page, q.Limit)

	resp := apiclient.OK("", view.rules.Page())
	resp.Pagination = &info
	return resp
}

func searchFilter(search string) func(domain.SystemRule) bool {
	if search == "" {
		return nil
	}
	return func(r domain.SystemRule) bool {
		return strings.Contains(strings.ToLower(r.Title), search) ||
			strings.Contains(strings.ToLower(r.Content), search)
	}
}

// Create создает правило и добавляет его в загруженную коллекцию
func (s *SystemRuleService) Create(ctx context.Context, owner string, req domain.SystemRuleRequest) apiclient.Response[domain.SystemRule] {
	if err := s.validator.Validate(req); err != nil {
		return validationFailure[domain.SystemRule](err)
	}

	resp := apiclient.Call[domain.SystemRule](ctx, s.client, apiclient.Request{
		Method: http.MethodPost,
		Path:   pathSystemRules,
		Body:   req,
	})
	if !resp.Success {
		return resp
	}

	view := s.views.get(owner)
	view.mu.Lock()
	if view.loaded {
		view.rules.Append(resp.Data)
	}
	view.mu.Unlock()

	s.logger.Info("System rule created", logger.Fields{"rule_id": resp.Data.ID})
	return resp
}

// Update обновляет правило и заменяет его в загруженной коллекции
func (s *SystemRuleService) Update(ctx context.Context, owner, id string, req domain.SystemRuleRequest) apiclient.Response[domain.SystemRule] {
	if err := s.validator.Validate(req); err != nil {
		return validationFailure[domain.SystemRule](err)
	}

	resp := apiclient.Call[domain.SystemRule](ctx, s.client, apiclient.Request{
		Method: http.MethodPatch,
		Path:   itemPath(pathSystemRules, id),
		Body:   req,
	})
	if !resp.Success {
		return resp
	}

	view := s.views.get(owner)
	view.mu.Lock()
	view.rules.Update(func(r domain.SystemRule) bool { return r.ID == id }, func(r *domain.SystemRule) {
		r.Title = req.Title
		r.Content = req.Content
		r.IsActive = req.IsActive
	})
	view.mu.Unlock()

	return resp
}

// Delete удаляет правило. currentPage ограничивается, если последняя страница опустела.
func (s *SystemRuleService) Delete(ctx context.Context, owner, id string) apiclient.Response[json.RawMessage] {
	resp := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodDelete,
		Path:   itemPath(pathSystemRules, id),
	})
	if !resp.Success {
		return resp
	}

	view := s.views.get(owner)
	view.mu.Lock()
	view.rules.Remove(func(r domain.SystemRule) bool { return r.ID == id })
	view.mu.Unlock()

	s.logger.Info("System rule deleted", logger.Fields{"rule_id": id})
	return resp
}

// Release забывает состояние списка администратора
func (s *SystemRuleService) Release(owner string) {
	s.views.release(owner)
}
