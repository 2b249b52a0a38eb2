package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/internal/session"
	"github.com/pryve/pryve-admin/pkg/auth"
	apperrors "github.com/pryve/pryve-admin/pkg/errors"
	"github.com/pryve/pryve-admin/pkg/logger"
)

// Имена cookie сессии администратора
const (
	TokenCookie    = "authToken"
	UserDataCookie = "userData"
)

type ownerKey struct{}

// WithOwner сохраняет идентификатор администратора в контексте
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFrom возвращает идентификатор администратора, сохраненный Authenticate
func OwnerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

// Сообщения аутентификации
const (
	SessionExpiredMessage  = "Session expired, please log in again"
	SessionNotFoundMessage = "Session not found, please log in again"
)

type sessionUserKey struct{}

// WithSessionUser сохраняет профиль администратора в контексте
func WithSessionUser(ctx context.Context, user domain.SessionUser) context.Context {
	return context.WithValue(ctx, sessionUserKey{}, user)
}

// SessionUserFrom возвращает профиль, привязанный к токену при входе
func SessionUserFrom(ctx context.Context) (domain.SessionUser, bool) {
	user, ok := ctx.Value(sessionUserKey{}).(domain.SessionUser)
	return user, ok
}

// AuthMiddleware предоставляет middleware для аутентификации администраторов
type AuthMiddleware struct {
	inspector *auth.TokenInspector
	sessions  session.Store
	logger    logger.Logger
}

// NewAuthMiddleware создает новый экземпляр AuthMiddleware
func NewAuthMiddleware(inspector *auth.TokenInspector, sessions session.Store, logger logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		inspector: inspector,
		sessions:  sessions,
		logger:    logger,
	}
}

// Authenticate берет токен из cookie authToken или заголовка Authorization и пропускает
// только токены, выданные через вход в шлюз. Администратор определяется привязкой токена,
// cookie userData и claims токена для этого не используются.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			WriteError(w, apperrors.Unauthorized(""))
			return
		}

		if _, err := m.inspector.Inspect(token); errors.Is(err, auth.ErrExpiredToken) {
			if err := m.sessions.Revoke(r.Context(), token); err != nil {
				m.logger.Warn("Failed to revoke expired session", logger.Fields{"error": err.Error()})
			}
			WriteError(w, apperrors.Unauthorized(SessionExpiredMessage))
			return
		}

		user, ok, err := m.sessions.Lookup(r.Context(), token)
		if err != nil {
			m.logger.Error("Session lookup failed", err)
			WriteError(w, apperrors.FromError(fmt.Errorf("%w: %v", apperrors.ErrServiceUnavailable, err)))
			return
		}
		if !ok {
			m.logger.Info("Rejected unknown admin token", logger.Fields{"path": r.URL.Path})
			WriteError(w, apperrors.Unauthorized(SessionNotFoundMessage))
			return
		}
		if !user.IsAdmin() {
			WriteError(w, apperrors.Forbidden(""))
			return
		}

		ctx := apiclient.WithToken(r.Context(), token)
		ctx = WithOwner(ctx, user.ID)
		ctx = WithSessionUser(ctx, user)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TokenFromRequest возвращает токен из cookie или заголовка Authorization
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// WriteError отправляет ошибку шлюза в конверте {success, message, error}
func WriteError(w http.ResponseWriter, appErr *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(apiclient.Failure[any](appErr.Message, appErr.Code))
}
