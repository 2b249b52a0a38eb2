package handlers

import (
	"net/http"
	"strings"

	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/internal/service"
)

// UserHandler обрабатывает запросы, связанные с пользователями
type UserHandler struct {
	BaseHandler
	userService *service.UserService
}

// NewUserHandler создает новый экземпляр UserHandler
func NewUserHandler(base BaseHandler, userService *service.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
	}
}

// ListUsers возвращает страницу пользователей с агрегатами по статусам
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := h.GetPaginationParams(r)
	respond(&h.BaseHandler, w, r, h.userService.List(r.Context(), h.GetOwner(r), page, limit))
}

// ListAdmins возвращает страницу администраторов. Параметры: page, limit, status, refresh.
func (h *UserHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	page, limit := h.GetPaginationParams(r)
	q := service.AdminQuery{
		Page:    page,
		Limit:   limit,
		Status:  domain.UserStatus(strings.ToUpper(r.URL.Query().Get("status"))),
		Refresh: queryBool(r, "refresh"),
	}
	respond(&h.BaseHandler, w, r, h.userService.Admins(r.Context(), h.GetOwner(r), q))
}

// UpdateStatus блокирует или разблокирует пользователя
func (h *UserHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.UserStatusUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	userID := h.GetURLParam(r, "id")
	respond(&h.BaseHandler, w, r, h.userService.ChangeStatus(r.Context(), h.GetOwner(r), userID, req))
}
