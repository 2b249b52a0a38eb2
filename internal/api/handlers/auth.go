package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	mw "github.com/pryve/pryve-admin/internal/api/middleware"
	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/internal/service"
	"github.com/pryve/pryve-admin/internal/session"
	"github.com/pryve/pryve-admin/pkg/auth"
	"github.com/pryve/pryve-admin/pkg/config"
	apperrors "github.com/pryve/pryve-admin/pkg/errors"
	"github.com/pryve/pryve-admin/pkg/logger"
)

// LoggedOutMessage возвращается после выхода
const LoggedOutMessage = "Logged out"

// SessionReleaser освобождает состояние, которое шлюз держит для администратора
type SessionReleaser func(owner string)

// AuthHandler обрабатывает запросы, связанные с аутентификацией
type AuthHandler struct {
	BaseHandler
	authService *service.AuthService
	inspector   *auth.TokenInspector
	sessions    session.Store
	config      config.SessionConfig
	releasers   []SessionReleaser
}

// NewAuthHandler создает новый экземпляр AuthHandler. releasers вызываются при выходе.
func NewAuthHandler(base BaseHandler, authService *service.AuthService, inspector *auth.TokenInspector,
	sessions session.Store, cfg config.SessionConfig, releasers ...SessionReleaser) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
		inspector:   inspector,
		sessions:    sessions,
		config:      cfg,
		releasers:   releasers,
	}
}

// Login выполняет вход и сохраняет токен и профиль администратора в cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp := h.authService.Login(r.Context(), req)
	if !resp.Success {
		respond(&h.BaseHandler, w, r, resp)
		return
	}

	login := resp.Data
	expires := h.inspector.SessionExpiry(login.Token, h.config.TTL)
	if err := h.sessions.Bind(r.Context(), login.Token, login.User.ToSessionUser(), time.Until(expires)); err != nil {
		if errors.Is(err, session.ErrExpired) {
			h.RespondWithError(w, r, apperrors.Unauthorized(mw.SessionExpiredMessage))
			return
		}
		h.RespondWithError(w, r, apperrors.InternalServer(err))
		return
	}

	h.setSessionCookies(w, login, expires)
	respond(&h.BaseHandler, w, r, resp)
}

// Logout удаляет cookie сессии. Состояние администратора освобождается, только если
// токен был выдан через вход.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := mw.TokenFromRequest(r); token != "" {
		h.release(r, token)
	}

	h.clearSessionCookies(w)
	respond(&h.BaseHandler, w, r, apiclient.OK[any](LoggedOutMessage, nil))
}

// Me возвращает профиль, привязанный к токену при входе
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := mw.SessionUserFrom(r.Context())
	if !ok {
		h.RespondWithError(w, r, apperrors.NotFound("Profile not found"))
		return
	}
	respond(&h.BaseHandler, w, r, apiclient.OK("", user))
}

// VerifyOTP подтверждает одноразовый код
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	respond(&h.BaseHandler, w, r, h.authService.VerifyOTP(r.Context(), req))
}

// ResendOTP повторно отправляет одноразовый код
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendOTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	respond(&h.BaseHandler, w, r, h.authService.ResendOTP(r.Context(), req))
}

// ForgotPassword запускает восстановление пароля
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	respond(&h.BaseHandler, w, r, h.authService.ForgotPassword(r.Context(), req))
}

// UpdatePassword устанавливает новый пароль после подтверждения кода
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdatePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	respond(&h.BaseHandler, w, r, h.authService.UpdatePassword(r.Context(), req))
}

// ChangePassword меняет пароль текущего администратора
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ChangePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	respond(&h.BaseHandler, w, r, h.authService.ChangePassword(r.Context(), req))
}

func (h *AuthHandler) release(r *http.Request, token string) {
	user, ok, err := h.sessions.Lookup(r.Context(), token)
	if err != nil {
		h.Logger.Error("Session lookup failed on logout", err)
		return
	}
	if !ok {
		return
	}

	for _, release := range h.releasers {
		release(user.ID)
	}
	if err := h.sessions.Revoke(r.Context(), token); err != nil {
		h.Logger.Error("Failed to revoke session", err, logger.Fields{"owner": user.ID})
	}
	h.Logger.Info("Admin logged out", logger.Fields{"owner": user.ID})
}

func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, login domain.LoginResponse, expires time.Time) {
	http.SetCookie(w, h.cookie(mw.TokenCookie, login.Token, expires, true))

	profile, err := json.Marshal(login.User.ToSessionUser())
	if err != nil {
		h.Logger.Error("Failed to encode session profile", err, logger.Fields{"user_id": login.User.ID})
		return
	}
	// профиль читает фронтенд, поэтому cookie без HttpOnly. Шлюз его не читает.
	http.SetCookie(w, h.cookie(mw.UserDataCookie, url.QueryEscape(string(profile)), expires, false))
}

func (h *AuthHandler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{mw.TokenCookie, mw.UserDataCookie} {
		c := h.cookie(name, "", time.Unix(0, 0), name == mw.TokenCookie)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (h *AuthHandler) cookie(name, value string, expires time.Time, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: httpOnly,
		Secure:   h.config.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
