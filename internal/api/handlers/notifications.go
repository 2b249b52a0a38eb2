package handlers

import (
	"net/http"

	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/internal/service"
)

// NotificationHandler обрабатывает запросы, связанные с рассылками
type NotificationHandler struct {
	BaseHandler
	notificationService *service.NotificationService
}

// NewNotificationHandler создает новый экземпляр NotificationHandler
func NewNotificationHandler(base BaseHandler, notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         base,
		notificationService: notificationService,
	}
}

// ListNotifications возвращает страницу отправленных рассылок
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	page, limit := h.GetPaginationParams(r)
	respond(&h.BaseHandler, w, r, h.notificationService.List(r.Context(), h.GetOwner(r), page, limit))
}

// SendNotification отправляет рассылку выбранной аудитории
func (h *NotificationHandler) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req domain.NotificationSendRequest
	if !h.decode(w, r, &req) {
		return
	}
	respond(&h.BaseHandler, w, r, h.notificationService.Send(r.Context(), h.GetOwner(r), req))
}
