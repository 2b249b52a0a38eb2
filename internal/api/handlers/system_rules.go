package handlers

import (
	"net/http"

	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/internal/service"
)

// SystemRuleHandler обрабатывает запросы системных правил
type SystemRuleHandler struct {
	BaseHandler
	ruleService *service.SystemRuleService
}

// NewSystemRuleHandler создает новый экземпляр SystemRuleHandler
func NewSystemRuleHandler(base BaseHandler, ruleService *service.SystemRuleService) *SystemRuleHandler {
	return &SystemRuleHandler{
		BaseHandler: base,
		ruleService: ruleService,
	}
}

// ListRules возвращает страницу правил. Параметры: page, limit, search, refresh.
func (h *SystemRuleHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	page, limit := h.GetPaginationParams(r)
	q := service.RuleQuery{
		Page:    page,
		Limit:   limit,
		Search:  r.URL.Query().Get("search"),
		Refresh: queryBool(r, "refresh"),
	}
	respond(&h.BaseHandler, w, r, h.ruleService.List(r.Context(), h.GetOwner(r), q))
}

// CreateRule создает правило
func (h *SystemRuleHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req domain.SystemRuleRequest
	if !h.decode(w, r, &req) {
		return
	}
	respond(&h.BaseHandler, w, r, h.ruleService.Create(r.Context(), h.GetOwner(r), req))
}

// UpdateRule обновляет правило
func (h *SystemRuleHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	var req domain.SystemRuleRequest
	if !h.decode(w, r, &req) {
		return
	}
	respond(&h.BaseHandler, w, r, h.ruleService.Update(r.Context(), h.GetOwner(r), h.GetURLParam(r, "id"), req))
}

// DeleteRule удаляет правило
func (h *SystemRuleHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	respond(&h.BaseHandler, w, r, h.ruleService.Delete(r.Context(), h.GetOwner(r), h.GetURLParam(r, "id")))
}
