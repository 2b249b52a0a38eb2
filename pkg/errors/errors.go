package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Типы ошибок
var (
	ErrInternalServer     = errors.New("internal server error")
	ErrBadRequest         = errors.New("bad request")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("resource not found")
	ErrValidation         = errors.New("validation error")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrBadGateway         = errors.New("bad gateway")
	ErrTimeout            = errors.New("request timeout")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// AppError представляет ошибку шлюза
type AppError struct {
	Err        error
	StatusCode int
	Message    string
	Code       string
	Data       interface{}
}

// Error реализует интерфейс error
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap возвращает оборачиваемую ошибку
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError создает новую ошибку приложения
func NewAppError(err error, statusCode int, message, code string, data interface{}) *AppError {
	return &AppError{
		Err:        err,
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
		Data:       data,
	}
}

// FromError создает AppError из обычной ошибки
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return NewAppError(err, http.StatusNotFound, "Resource not found", "not_found", nil)
	case errors.Is(err, ErrBadRequest):
		return NewAppError(err, http.StatusBadRequest, "Bad request", "bad_request", nil)
	case errors.Is(err, ErrUnauthorized):
		return NewAppError(err, http.StatusUnauthorized, "Unauthorized", "unauthorized", nil)
	case errors.Is(err, ErrForbidden):
		return NewAppError(err, http.StatusForbidden, "Forbidden", "forbidden", nil)
	case errors.Is(err, ErrValidation):
		return NewAppError(err, http.StatusUnprocessableEntity, "Validation error", "validation_error", nil)
	case errors.Is(err, ErrTooManyRequests):
		return NewAppError(err, http.StatusTooManyRequests, "Rate limit exceeded", "rate_limited", nil)
	case errors.Is(err, ErrBadGateway):
		return NewAppError(err, http.StatusBadGateway, "Bad gateway", "upstream_unavailable", nil)
	case errors.Is(err, ErrTimeout):
		return NewAppError(err, http.StatusGatewayTimeout, "Request timed out", "timeout", nil)
	case errors.Is(err, ErrServiceUnavailable):
		return NewAppError(err, http.StatusServiceUnavailable, "Service unavailable", "service_unavailable", nil)
	default:
		return NewAppError(err, http.StatusInternalServerError, "Internal server error", "internal_error", nil)
	}
}

// BadRequest создает ошибку 400 Bad Request
func BadRequest(message string) *AppError {
	return NewAppError(ErrBadRequest, http.StatusBadRequest, message, "bad_request", nil)
}

// Unauthorized создает ошибку 401 Unauthorized
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "Authentication required"
	}
	return NewAppError(ErrUnauthorized, http.StatusUnauthorized, message, "unauthorized", nil)
}

// Forbidden создает ошибку 403 Forbidden
func Forbidden(message string) *AppError {
	if message == "" {
		message = "You don't have permission to perform this action"
	}
	return NewAppError(ErrForbidden, http.StatusForbidden, message, "forbidden", nil)
}

// NotFound создает ошибку 404 Not Found
func NotFound(message string) *AppError {
	if message == "" {
		message = "Resource not found"
	}
	return NewAppError(ErrNotFound, http.StatusNotFound, message, "not_found", nil)
}

// ValidationError создает ошибку 422 Unprocessable Entity
func ValidationError(message string, data interface{}) *AppError {
	if message == "" {
		message = "Validation failed"
	}
	return NewAppError(ErrValidation, http.StatusUnprocessableEntity, message, "validation_error", data)
}

// TooManyRequests создает ошибку 429 Too Many Requests
func TooManyRequests() *AppError {
	return NewAppError(ErrTooManyRequests, http.StatusTooManyRequests, "Rate limit exceeded", "rate_limited", nil)
}

// InternalServer создает ошибку 500 Internal Server Error
func InternalServer(err error) *AppError {
	if err == nil {
		err = ErrInternalServer
	} else {
		err = fmt.Errorf("%w: %v", ErrInternalServer, err)
	}
	return NewAppError(err, http.StatusInternalServerError, "Internal server error", "internal_error", nil)
}

// Upstream переводит неуспешный ответ бэкенда в статус ответа шлюза.
// Статус 0 означает, что бэкенд не ответил, 2xx - что он ответил success=false.
func Upstream(statusCode int, message, detail string) *AppError {
	switch {
	case statusCode == 0:
		return NewAppError(ErrBadGateway, http.StatusBadGateway, message, "upstream_unavailable", detail)
	case statusCode < 400:
		return NewAppError(ErrBadRequest, http.StatusBadRequest, message, "upstream_rejected", detail)
	default:
		return NewAppError(fmt.Errorf("upstream responded with %d", statusCode), statusCode, message, "upstream_error", detail)
	}
}
