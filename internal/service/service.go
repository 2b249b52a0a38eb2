// Package service содержит операции дашборда. Каждая операция обращается к бэкенду
// только через apiclient и возвращает нормализованный ответ, ошибки сети не всплывают.
package service

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/pkg/validator"
)

// Пути REST API бэкенда
const (
	pathLogin          = "/api/v1/users/login"
	pathVerifyOTP      = "/api/v1/users/verify-otp"
	pathResendOTP      = "/api/v1/users/resend-otp"
	pathForgotPassword = "/api/v1/users/forgot-password"
	pathUpdatePassword = "/api/v1/users/update-password"
	pathChangePassword = "/api/v1/users/change-password"
	pathUsers          = "/api/v1/users/get-all"
	pathAIConfig       = "/api/v1/ai-config"
	pathTones          = "/api/v1/ai-config/tones"
	pathNotifications  = "/api/v1/notifications"
	pathSystemRules    = "/api/v1/system-rules"
)

// ValidationFailedMessage используется, если ошибка валидации не разобрана по полям
const ValidationFailedMessage = "Validation failed"

// validationFailure превращает ошибку валидации в неуспешный ответ без обращения к бэкенду
func validationFailure[T any](err error) apiclient.Response[T] {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return apiclient.Failure[T](ve.First(), ve.Error())
	}
	return apiclient.Failure[T](ValidationFailedMessage, err.Error())
}

func userStatusPath(userID string) string {
	return "/api/v1/users/" + url.PathEscape(userID) + "/status"
}

func itemPath(base, id string) string {
	return base + "/" + url.PathEscape(id)
}

func pageQuery(page, limit int) url.Values {
	return url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
}
