package domain

import (
	"time"
)

// NotificationAudience определяет получателей рассылки
type NotificationAudience string

const (
	// AudienceAll - все пользователи
	AudienceAll NotificationAudience = "ALL"
	// AudiencePremium - только премиум-пользователи
	AudiencePremium NotificationAudience = "PREMIUM"
	// AudienceFree - только бесплатные пользователи
	AudienceFree NotificationAudience = "FREE"
)

// Notification представляет отправленное уведомление
type Notification struct {
	ID         string               `json:"id"`
	Title      string               `json:"title"`
	Message    string               `json:"message"`
	Audience   NotificationAudience `json:"audience"`
	Recipients int                  `json:"recipients,omitempty"`
	CreatedAt  time.Time            `json:"createdAt"`
}

// NotificationSendRequest представляет данные для рассылки уведомления
type NotificationSendRequest struct {
	Title    string               `json:"title" validate:"required,max=120"`
	Message  string               `json:"message" validate:"required,max=1000"`
	Audience NotificationAudience `json:"audience" validate:"required,oneof=ALL PREMIUM FREE"`
}

// AnalyticsOverview - сводка для главной страницы панели
type AnalyticsOverview struct {
	Users              UserCounts `json:"users"`
	TotalNotifications int        `json:"totalNotifications"`
	SystemPromptActive bool       `json:"systemPromptActive"`
	GeneratedAt        time.Time  `json:"generatedAt"`
}
