package service

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/pkg/logger"
	"github.com/pryve/pryve-admin/pkg/validator"
)

// Сообщения входа
const (
	LoginFailedMessage  = "Login failed"
	AccessDeniedMessage = "Access denied"
)

// AuthService реализует вход администратора и операции с паролем
type AuthService struct {
	client    *apiclient.Client
	validator *validator.CustomValidator
	logger    logger.Logger
}

// NewAuthService создает новый экземпляр AuthService
func NewAuthService(client *apiclient.Client, v *validator.CustomValidator, log logger.Logger) *AuthService {
	return &AuthService{
		client:    client,
		validator: v,
		logger:    log,
	}
}

// Login выполняет вход. Пользователь без роли администратора в дашборд не допускается.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) apiclient.Response[domain.LoginResponse] {
	if err := s.validator.Validate(req); err != nil {
		return validationFailure[domain.LoginResponse](err)
	}

	resp := apiclient.Call[domain.LoginResponse](ctx, s.client, apiclient.Request{
		Method: http.MethodPost,
		Path:   pathLogin,
		Body:   req,
	})
	if !resp.Success {
		s.logger.Info("Login rejected", logger.Fields{"email": req.Email, "message": resp.Message})
		return resp
	}

	if resp.Data.Token == "" {
		failed := apiclient.Failure[domain.LoginResponse](LoginFailedMessage, "token missing from login response")
		failed.StatusCode = http.StatusBadGateway
		return failed
	}
	if !resp.Data.User.IsAdmin() {
		s.logger.Warn("Non-admin login attempt", logger.Fields{"user_id": resp.Data.User.ID})
		failed := apiclient.Failure[domain.LoginResponse](AccessDeniedMessage, "admin role required")
		failed.StatusCode = http.StatusForbidden
		return failed
	}

	s.logger.Info("Admin logged in", logger.Fields{"user_id": resp.Data.User.ID})
	return resp
}

// VerifyOTP подтверждает одноразовый код
func (s *AuthService) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) apiclient.Response[json.RawMessage] {
	return s.post(ctx, pathVerifyOTP, req)
}

// ResendOTP повторно отправляет одноразовый код
func (s *AuthService) ResendOTP(ctx context.Context, req domain.ResendOTPRequest) apiclient.Response[json.RawMessage] {
	return s.post(ctx, pathResendOTP, req)
}

// ForgotPassword запускает восстановление пароля
func (s *AuthService) ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) apiclient.Response[json.RawMessage] {
	return s.post(ctx, pathForgotPassword, req)
}

// UpdatePassword устанавливает новый пароль после подтверждения кода
func (s *AuthService) UpdatePassword(ctx context.Context, req domain.UpdatePasswordRequest) apiclient.Response[json.RawMessage] {
	if err := s.validator.Validate(req); err != nil {
		return validationFailure[json.RawMessage](err)
	}
	return s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   pathUpdatePassword,
		Body: map[string]string{
			"email":       req.Email,
			"newPassword": req.NewPassword,
		},
	})
}

// ChangePassword меняет пароль текущего администратора
func (s *AuthService) ChangePassword(ctx context.Context, req domain.ChangePasswordRequest) apiclient.Response[json.RawMessage] {
	if err := s.validator.Validate(req); err != nil {
		return validationFailure[json.RawMessage](err)
	}
	return s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   pathChangePassword,
		Body: map[string]string{
			"currentPassword": req.CurrentPassword,
			"newPassword":     req.NewPassword,
		},
	})
}

func (s *AuthService) post(ctx context.Context, path string, req interface{}) apiclient.Response[json.RawMessage] {
	if err := s.validator.Validate(req); err != nil {
		return validationFailure[json.RawMessage](err)
	}
	return s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   req,
	})
}
