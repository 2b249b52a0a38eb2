package messaging

import (
	"time"

	"github.com/pryve/pryve-admin/internal/domain"
)

// Типы событий
const (
	EventTypeProgressChanged   = "ai_config_progress_changed"
	EventTypeUserStatusChanged = "user_status_changed"
)

// ProgressEvent - изменение состояния длительной загрузки
type ProgressEvent struct {
	Type            string                `json:"type"`
	Surface         string                `json:"surface"`
	SessionID       string                `json:"session_id"`
	Status          domain.ProgressStatus `json:"status"`
	Progress        int                   `json:"progress"`
	ProcessedChunks int                   `json:"processed_chunks"`
	TotalChunks     int                   `json:"total_chunks"`
	Message         string                `json:"message,omitempty"`
	Error           string                `json:"error,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

// UserStatusEvent - смена статуса пользователя администратором
type UserStatusEvent struct {
	Type      string            `json:"type"`
	UserID    string            `json:"user_id"`
	From      domain.UserStatus `json:"from"`
	To        domain.UserStatus `json:"to"`
	ChangedBy string            `json:"changed_by"`
	CreatedAt time.Time         `json:"created_at"`
}
