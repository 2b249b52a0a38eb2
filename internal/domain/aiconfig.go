package domain

import "time"

// AIConfig представляет настройки AI-ассистента
type AIConfig struct {
	ID                 string    `json:"id,omitempty"`
	SystemPrompt       string    `json:"systemPrompt"`
	SystemPromptActive bool      `json:"systemPromptActive"`
	Temperature        *float64  `json:"temperature,omitempty"`
	MaxTokens          *int      `json:"maxTokens,omitempty"`
	ActiveToneID       *string   `json:"activeToneId,omitempty"`
	ChatFlowEnabled    *bool     `json:"chatFlowEnabled,omitempty"`
	UpdatedAt          time.Time `json:"updatedAt,omitempty"`
}

// AIConfigUpdateRequest - частичное обновление AI-конфигурации.
// SessionID связывает запрос с эндпоинтом прогресса, если загрузка разбивается на чанки.
type AIConfigUpdateRequest struct {
	SystemPrompt       *string  `json:"systemPrompt,omitempty"`
	SystemPromptActive *bool    `json:"systemPromptActive,omitempty"`
	Temperature        *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens          *int     `json:"maxTokens,omitempty" validate:"omitempty,gt=0"`
	ActiveToneID       *string  `json:"activeToneId,omitempty"`
	ChatFlowEnabled    *bool    `json:"chatFlowEnabled,omitempty"`
	SessionID          string   `json:"sessionId,omitempty"`
}

// SystemPromptSaveRequest - запрос на сохранение системного промпта из редактора
type SystemPromptSaveRequest struct {
	SystemPrompt string `json:"systemPrompt" validate:"required"`
	Active       bool   `json:"systemPromptActive"`
}

// ToneProfile описывает профиль тона ответов AI
type ToneProfile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Prompt      string    `json:"prompt"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// ToneProfileRequest - данные для создания или обновления профиля тона
type ToneProfileRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"max=500"`
	Prompt      string `json:"prompt" validate:"required"`
	IsActive    bool   `json:"isActive"`
}

// SystemRule - правило, добавляемое к системному промпту
type SystemRule struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// SystemRuleRequest - данные для создания или обновления правила
type SystemRuleRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Content  string `json:"content" validate:"required"`
	IsActive bool   `json:"isActive"`
}
