// Package handlers содержит HTTP-обработчики шлюза дашборда. Обработчик разбирает запрос,
// вызывает сервис и отдает его нормализованный ответ в конверте {success, message, ...}.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	mw "github.com/pryve/pryve-admin/internal/api/middleware"
	"github.com/pryve/pryve-admin/internal/apiclient"
	apperrors "github.com/pryve/pryve-admin/pkg/errors"
	"github.com/pryve/pryve-admin/pkg/logger"
)

// maxRequestBody ограничивает размер тела запроса. Системный промпт бывает большим.
const maxRequestBody = 5 << 20

// InvalidFormatMessage возвращается, если тело запроса не разобрано
const InvalidFormatMessage = "Invalid request format"

// BaseHandler содержит общие методы для всех обработчиков
type BaseHandler struct {
	Logger logger.Logger
}

// NewBaseHandler создает новый экземпляр BaseHandler
func NewBaseHandler(logger logger.Logger) BaseHandler {
	return BaseHandler{Logger: logger}
}

// Respond отправляет JSON с указанным кодом статуса
func (h *BaseHandler) Respond(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.Logger.Error("Failed to encode response", err, logger.Fields{"path": r.URL.Path})
		}
	}
}

// RespondWithError отправляет ошибку шлюза
func (h *BaseHandler) RespondWithError(w http.ResponseWriter, r *http.Request, appErr *apperrors.AppError) {
	if appErr.StatusCode >= http.StatusInternalServerError {
		h.Logger.Error("Request failed", appErr, logger.Fields{"path": r.URL.Path})
	}
	mw.WriteError(w, appErr)
}

// respond отдает нормализованный ответ сервиса со статусом, соответствующим результату
func respond[T any](h *BaseHandler, w http.ResponseWriter, r *http.Request, resp apiclient.Response[T]) {
	status := http.StatusOK
	if !resp.Success {
		status = failureStatus(resp.StatusCode, resp.Message)
	}
	h.Respond(w, r, status, resp)
}

// failureStatus выбирает статус ответа шлюза для неуспешного результата
func failureStatus(upstreamStatus int, message string) int {
	return failureError(upstreamStatus, message).StatusCode
}

// failureError переводит неуспешный результат в ошибку шлюза
func failureError(upstreamStatus int, message string) *apperrors.AppError {
	switch {
	case upstreamStatus >= http.StatusBadRequest:
		return apperrors.Upstream(upstreamStatus, message, "")
	case upstreamStatus == 0 && message == apiclient.TimeoutMessage:
		return apperrors.FromError(apperrors.ErrTimeout)
	case upstreamStatus == 0 && message == apiclient.NetworkErrorMessage:
		return apperrors.FromError(apperrors.ErrBadGateway)
	case upstreamStatus == 0:
		// ответа бэкенда не было: запрос отклонен валидацией шлюза
		return apperrors.ValidationError(message, nil)
	case message == apiclient.NonJSONMessage, message == apiclient.InvalidJSONMessage,
		message == apiclient.UnexpectedDataMessage:
		return apperrors.FromError(apperrors.ErrBadGateway)
	default:
		return apperrors.Upstream(upstreamStatus, message, "")
	}
}

// ParseJSON разбирает JSON из тела запроса
func (h *BaseHandler) ParseJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty request body: %w", apperrors.ErrBadRequest)
		}
		return fmt.Errorf("failed to parse JSON: %w: %v", apperrors.ErrBadRequest, err)
	}
	return nil
}

// decode разбирает тело запроса и сам отвечает 400, если это не удалось
func (h *BaseHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := h.ParseJSON(w, r, dst); err != nil {
		h.Logger.Debug("Failed to parse request body", logger.Fields{"path": r.URL.Path, "error": err.Error()})
		appErr := apperrors.FromError(err)
		appErr.Message = InvalidFormatMessage
		h.RespondWithError(w, r, appErr)
		return false
	}
	return true
}

// GetPaginationParams извлекает page и limit из запроса. Отсутствующие и нечисловые
// значения дают 0, нормализацию выполняет список.
func (h *BaseHandler) GetPaginationParams(r *http.Request) (int, int) {
	return queryInt(r, "page"), queryInt(r, "limit")
}

// GetOwner возвращает идентификатор администратора, выставленный middleware аутентификации
func (h *BaseHandler) GetOwner(r *http.Request) string {
	return mw.OwnerFrom(r.Context())
}

// GetURLParam извлекает параметр из URL
func (h *BaseHandler) GetURLParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}
