package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/internal/progress"
	"github.com/pryve/pryve-admin/pkg/logger"
	"github.com/pryve/pryve-admin/pkg/validator"
)

// SystemPromptSurface - поверхность редактора системного промпта
const SystemPromptSurface = "system-prompt"

// DefaultWordThreshold - размер промпта в словах, начиная с которого сохранение отслеживается
const DefaultWordThreshold = 500

// Сообщения сохранения промпта
const (
	PromptSavedMessage    = "System prompt saved"
	PromptTrackingMessage = "System prompt upload started"
	TrackingFailedMessage = "Failed to start upload tracking"
)

// SavePromptResult описывает результат сохранения системного промпта
type SavePromptResult struct {
	Tracked   bool             `json:"tracked"`
	SessionID string           `json:"sessionId,omitempty"`
	Config    *domain.AIConfig `json:"config,omitempty"`
}

// ProgressFetcher запрашивает состояние загрузки у эндпоинта прогресса
type ProgressFetcher struct {
	client *apiclient.Client
	path   string
}

// NewProgressFetcher создает fetcher для шаблона пути path, к которому дописывается sessionId
func NewProgressFetcher(client *apiclient.Client, path string) *ProgressFetcher {
	return &ProgressFetcher{client: client, path: strings.TrimRight(path, "/")}
}

// FetchProgress реализует progress.StatusFetcher
func (f *ProgressFetcher) FetchProgress(ctx context.Context, token, sessionID string) apiclient.Response[json.RawMessage] {
	return f.client.Do(ctx, apiclient.Request{
		Method:  http.MethodGet,
		Path:    itemPath(f.path, sessionID),
		Token:   token,
		NoRetry: true,
	})
}

// AIConfigService управляет настройками AI-ассистента
type AIConfigService struct {
	client        *apiclient.Client
	validator     *validator.CustomValidator
	trackers      *progress.Registry
	wordThreshold int
	logger        logger.Logger
}

// NewAIConfigService создает новый экземпляр AIConfigService
func NewAIConfigService(client *apiclient.Client, v *validator.CustomValidator, trackers *progress.Registry,
	wordThreshold int, log logger.Logger) *AIConfigService {
	if wordThreshold <= 0 {
		wordThreshold = DefaultWordThreshold
	}
	return &AIConfigService{
		client:        client,
		validator:     v,
		trackers:      trackers,
		wordThreshold: wordThreshold,
		logger:        log,
	}
}

// Get возвращает текущую конфигурацию
func (s *AIConfigService) Get(ctx context.Context) apiclient.Response[domain.AIConfig] {
	return apiclient.Call[domain.AIConfig](ctx, s.client, apiclient.Request{
		Method: http.MethodGet,
		Path:   pathAIConfig,
	})
}

// Update частично обновляет конфигурацию
func (s *AIConfigService) Update(ctx context.Context, req domain.AIConfigUpdateRequest) apiclient.Response[domain.AIConfig] {
	if err := s.validator.Validate(req); err != nil {
		return validationFailure[domain.AIConfig](err)
	}
	return apiclient.Call[domain.AIConfig](ctx, s.client, apiclient.Request{
		Method: http.MethodPatch,
		Path:   pathAIConfig,
		Body:   req,
	})
}

// Tracked сообщает, нужно ли отслеживать сохранение промпта через сессию прогресса
func (s *AIConfigService) Tracked(req domain.SystemPromptSaveRequest) bool {
	return req.Active && len(strings.Fields(req.SystemPrompt)) > s.wordThreshold
}

// SaveSystemPrompt сохраняет системный промпт. Большой активный промпт сохраняется
// с идентификатором сессии, и после принятия запроса начинается опрос прогресса.
// Если запрос отклонен, сессия снимается сразу и опрос не запускается.
func (s *AIConfigService) SaveSystemPrompt(ctx context.Context, owner string, req domain.SystemPromptSaveRequest) apiclient.Response[SavePromptResult] {
	if err := s.validator.Validate(req); err != nil {
		return validationFailure[SavePromptResult](err)
	}

	update := domain.AIConfigUpdateRequest{
		SystemPrompt:       &req.SystemPrompt,
		SystemPromptActive: &req.Active,
	}

	if !s.Tracked(req) {
		resp := s.Update(ctx, update)
		if !resp.Success {
			return apiclient.Failure[SavePromptResult](resp.Message, resp.Error)
		}
		message := resp.Message
		if message == apiclient.DefaultSuccessMessage {
			message = PromptSavedMessage
		}
		return apiclient.OK(message, SavePromptResult{Config: &resp.Data})
	}

	tracker := s.trackers.Tracker(ownerKey(owner, SystemPromptSurface))
	sessionID, err := tracker.Begin("")
	if err != nil {
		s.logger.Error("Failed to begin progress session", err, logger.Fields{"owner": owner})
		return apiclient.Failure[SavePromptResult](TrackingFailedMessage, err.Error())
	}

	update.SessionID = sessionID
	resp := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPatch,
		Path:   pathAIConfig,
		Body:   update,
	})
	if !resp.Success {
		tracker.Fail(sessionID, resp.Message)
		return apiclient.Failure[SavePromptResult](resp.Message, resp.Error)
	}

	if !tracker.Start(apiclient.TokenFrom(ctx), sessionID) {
		s.logger.Info("Progress session superseded before polling started", logger.Fields{
			"session_id": sessionID,
		})
	}

	return apiclient.OK(PromptTrackingMessage, SavePromptResult{Tracked: true, SessionID: sessionID})
}

// Progress возвращает снимок текущей сессии загрузки администратора
func (s *AIConfigService) Progress(owner string) (domain.ProgressSession, bool) {
	return s.trackers.Tracker(ownerKey(owner, SystemPromptSurface)).Snapshot()
}

// ReleaseProgress останавливает отслеживание загрузки администратора
func (s *AIConfigService) ReleaseProgress(owner string) {
	s.trackers.Release(ownerKey(owner, SystemPromptSurface))
}
