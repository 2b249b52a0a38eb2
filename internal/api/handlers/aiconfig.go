package handlers

import (
	"net/http"

	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/internal/service"
	apperrors "github.com/pryve/pryve-admin/pkg/errors"
)

// NoActiveUploadMessage возвращается, если у администратора нет сессии загрузки
const NoActiveUploadMessage = "No active upload"

// AIConfigHandler обрабатывает запросы настроек AI-ассистента
type AIConfigHandler struct {
	BaseHandler
	aiConfigService *service.AIConfigService
	toneService     *service.ToneService
}

// NewAIConfigHandler создает новый экземпляр AIConfigHandler
func NewAIConfigHandler(base BaseHandler, aiConfigService *service.AIConfigService, toneService *service.ToneService) *AIConfigHandler {
	return &AIConfigHandler{
		BaseHandler:     base,
		aiConfigService: aiConfigService,
		toneService:     toneService,
	}
}

// GetConfig возвращает текущую конфигурацию
func (h *AIConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	respond(&h.BaseHandler, w, r, h.aiConfigService.Get(r.Context()))
}

// UpdateConfig частично обновляет конфигурацию
func (h *AIConfigHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req domain.AIConfigUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}
	// идентификатор сессии выдает только сохранение промпта
	req.SessionID = ""
	respond(&h.BaseHandler, w, r, h.aiConfigService.Update(r.Context(), req))
}

// SaveSystemPrompt сохраняет системный промпт. Для большого промпта ответ приходит сразу,
// а ход загрузки доступен через GetProgress.
func (h *AIConfigHandler) SaveSystemPrompt(w http.ResponseWriter, r *http.Request) {
	var req domain.SystemPromptSaveRequest
	if !h.decode(w, r, &req) {
		return
	}
	respond(&h.BaseHandler, w, r, h.aiConfigService.SaveSystemPrompt(r.Context(), h.GetOwner(r), req))
}

// GetProgress возвращает снимок текущей сессии загрузки
func (h *AIConfigHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	session, ok := h.aiConfigService.Progress(h.GetOwner(r))
	if !ok {
		h.RespondWithError(w, r, apperrors.NotFound(NoActiveUploadMessage))
		return
	}
	respond(&h.BaseHandler, w, r, apiclient.OK("", session))
}

// ListTones возвращает профили тона
func (h *AIConfigHandler) ListTones(w http.ResponseWriter, r *http.Request) {
	respond(&h.BaseHandler, w, r, h.toneService.List(r.Context()))
}

// CreateTone создает профиль тона
func (h *AIConfigHandler) CreateTone(w http.ResponseWriter, r *http.Request) {
	var req domain.ToneProfileRequest
	if !h.decode(w, r, &req) {
		return
	}
	respond(&h.BaseHandler, w, r, h.toneService.Create(r.Context(), req))
}

// UpdateTone обновляет профиль тона
func (h *AIConfigHandler) UpdateTone(w http.ResponseWriter, r *http.Request) {
	var req domain.ToneProfileRequest
	if !h.decode(w, r, &req) {
		return
	}
	respond(&h.BaseHandler, w, r, h.toneService.Update(r.Context(), h.GetURLParam(r, "id"), req))
}

// DeleteTone удаляет профиль тона
func (h *AIConfigHandler) DeleteTone(w http.ResponseWriter, r *http.Request) {
	respond(&h.BaseHandler, w, r, h.toneService.Delete(r.Context(), h.GetURLParam(r, "id")))
}
