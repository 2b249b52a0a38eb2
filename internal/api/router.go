package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/pryve/pryve-admin/internal/api/handlers"
	mw "github.com/pryve/pryve-admin/internal/api/middleware"
	"github.com/pryve/pryve-admin/internal/notify"
	"github.com/pryve/pryve-admin/internal/service"
	"github.com/pryve/pryve-admin/internal/session"
	"github.com/pryve/pryve-admin/pkg/auth"
	"github.com/pryve/pryve-admin/pkg/config"
	"github.com/pryve/pryve-admin/pkg/loading"
	"github.com/pryve/pryve-admin/pkg/logger"
)

// Server представляет HTTP сервер шлюза дашборда
type Server struct {
	router      chi.Router
	logger      logger.Logger
	config      *config.Config
	inspector   *auth.TokenInspector
	baseHandler handlers.BaseHandler
	services    *Services
	deps        *Dependencies
	httpServer  *http.Server
}

// Services содержит все сервисы для обработчиков API
type Services struct {
	AuthService         *service.AuthService
	UserService         *service.UserService
	AIConfigService     *service.AIConfigService
	ToneService         *service.ToneService
	NotificationService *service.NotificationService
	SystemRuleService   *service.SystemRuleService
	AnalyticsService    *service.AnalyticsService
}

// Dependencies содержит общее состояние шлюза, которое отдают служебные маршруты
type Dependencies struct {
	Loading *loading.Counter
	Feed    *notify.Feed
	// Redis может быть nil: тогда ограничитель запросов считает в памяти
	Redis   *redis.Client
	// Sessions хранит привязки токенов, выданных при входе
	Sessions session.Store
	Pingers  map[string]handlers.Pinger
}

// NewServer создает новый экземпляр сервера API
func NewServer(config *config.Config, logger logger.Logger, inspector *auth.TokenInspector, services *Services, deps *Dependencies) *Server {
	server := &Server{
		router:      chi.NewRouter(),
		logger:      logger,
		config:      config,
		inspector:   inspector,
		baseHandler: handlers.NewBaseHandler(logger),
		services:    services,
		deps:        deps,
	}

	// Настраиваем маршрутизацию
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         ":" + config.HTTP.Port,
		Handler:      server.router,
		ReadTimeout:  config.HTTP.ReadTimeout,
		WriteTimeout: config.HTTP.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return server
}

// setupRoutes настраивает маршруты API
func (s *Server) setupRoutes() {
	// Инициализируем обработчики
	authHandler := handlers.NewAuthHandler(s.baseHandler, s.services.AuthService, s.inspector, s.deps.Sessions, s.config.Session,
		s.services.UserService.Release,
		s.services.NotificationService.Release,
		s.services.SystemRuleService.Release,
		s.services.AIConfigService.ReleaseProgress,
	)
	userHandler := handlers.NewUserHandler(s.baseHandler, s.services.UserService)
	aiConfigHandler := handlers.NewAIConfigHandler(s.baseHandler, s.services.AIConfigService, s.services.ToneService)
	notificationHandler := handlers.NewNotificationHandler(s.baseHandler, s.services.NotificationService)
	ruleHandler := handlers.NewSystemRuleHandler(s.baseHandler, s.services.SystemRuleService)
	statusHandler := handlers.NewStatusHandler(s.baseHandler, s.deps.Loading, s.deps.Feed,
		s.services.AnalyticsService, s.deps.Pingers)

	// Инициализируем middleware
	authMiddleware := mw.NewAuthMiddleware(s.inspector, s.deps.Sessions, s.logger)
	loggingMiddleware := mw.NewLoggingMiddleware(s.logger)

	// Ограничиваем попытки входа и восстановления пароля
	rateLimiter := mw.NewRateLimiter(mw.RateLimiterConfig{
		Limit:    s.config.RateLimit.Limit,
		Period:   s.config.RateLimit.Period,
		Strategy: mw.RateLimitIP,
		Prefix:   "rate_limit:auth",
	}, s.deps.Redis, s.logger)

	// Ограничиваем запросы одного администратора к защищенным маршрутам
	adminLimiter := mw.NewRateLimiter(mw.RateLimiterConfig{
		Limit:    s.config.RateLimit.AdminLimit,
		Period:   s.config.RateLimit.Period,
		Strategy: mw.RateLimitUser,
		Prefix:   "rate_limit:admin",
	}, s.deps.Redis, s.logger)

	if s.config.App.Context != nil {
		rateLimiter.StartCleanupTask(s.config.App.Context)
		adminLimiter.StartCleanupTask(s.config.App.Context)
	}

	// Настраиваем middleware для всех запросов
	s.router.Use(middleware.RequestID)
	if s.config.HTTP.TrustProxy {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(loggingMiddleware.LogRequest)
	s.router.Use(middleware.Recoverer)

	// Cookie сессии передаются только доверенным источникам
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.HTTP.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Get("/health", statusHandler.Health)

	// API v1
	s.router.Route("/api/v1", func(r chi.Router) {
		// Публичные маршруты (без аутентификации)
		r.Group(func(r chi.Router) {
			r.Use(rateLimiter.Limit)

			r.Post("/auth/login", authHandler.Login)
			r.Post("/auth/verify-otp", authHandler.VerifyOTP)
			r.Post("/auth/resend-otp", authHandler.ResendOTP)
			r.Post("/auth/forgot-password", authHandler.ForgotPassword)
			r.Post("/auth/update-password", authHandler.UpdatePassword)
		})
		r.Post("/auth/logout", authHandler.Logout)

		// Защищенные маршруты (требуют аутентификации)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(adminLimiter.Limit)

			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/change-password", authHandler.ChangePassword)

			r.Get("/loading", statusHandler.Loading)
			r.Get("/notices", statusHandler.Notices)
			r.Get("/analytics/overview", statusHandler.Overview)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.ListUsers)
				r.Get("/admins", userHandler.ListAdmins)
				r.Patch("/{id}/status", userHandler.UpdateStatus)
			})

			r.Route("/ai-config", func(r chi.Router) {
				r.Get("/", aiConfigHandler.GetConfig)
				r.Patch("/", aiConfigHandler.UpdateConfig)
				r.Post("/system-prompt", aiConfigHandler.SaveSystemPrompt)
				r.Get("/progress", aiConfigHandler.GetProgress)

				r.Get("/tones", aiConfigHandler.ListTones)
				r.Post("/tones", aiConfigHandler.CreateTone)
				r.Patch("/tones/{id}", aiConfigHandler.UpdateTone)
				r.Delete("/tones/{id}", aiConfigHandler.DeleteTone)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.ListNotifications)
				r.Post("/", notificationHandler.SendNotification)
			})

			r.Route("/system-rules", func(r chi.Router) {
				r.Get("/", ruleHandler.ListRules)
				r.Post("/", ruleHandler.CreateRule)
				r.Patch("/{id}", ruleHandler.UpdateRule)
				r.Delete("/{id}", ruleHandler.DeleteRule)
			})
		})
	})
}

// ServeHTTP реализует интерфейс http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start запускает HTTP сервер и блокируется до его остановки
func (s *Server) Start() error {
	s.logger.Info("Starting API server", logger.Fields{
		"port": s.config.HTTP.Port,
	})

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown корректно останавливает HTTP сервер, дожидаясь текущих запросов
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
