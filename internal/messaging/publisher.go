package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/pkg/config"
	"github.com/pryve/pryve-admin/pkg/logger"
)

// Publisher отправляет сообщение в топик брокера
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

// EventPublisher публикует доменные события шлюза
type EventPublisher struct {
	publisher Publisher
	topics    config.KafkaTopics
	logger    logger.Logger
}

// NewEventPublisher создает новый экземпляр EventPublisher
func NewEventPublisher(publisher Publisher, topics config.KafkaTopics, log logger.Logger) *EventPublisher {
	return &EventPublisher{
		publisher: publisher,
		topics:    topics,
		logger:    log,
	}
}

// SessionChanged публикует состояние сессии прогресса. Ошибка брокера только логируется.
func (p *EventPublisher) SessionChanged(ctx context.Context, surface string, session domain.ProgressSession) {
	event := ProgressEvent{
		Type:            EventTypeProgressChanged,
		Surface:         surface,
		SessionID:       session.SessionID,
		Status:          session.Status,
		Progress:        session.Progress,
		ProcessedChunks: session.ProcessedChunks,
		TotalChunks:     session.TotalChunks,
		Message:         session.Message,
		Error:           session.Error,
		CreatedAt:       time.Now().UTC(),
	}

	_ = p.publishEvent(ctx, p.topics.Progress, session.SessionID, event)
}

// PublishUserStatusChanged публикует смену статуса пользователя
func (p *EventPublisher) PublishUserStatusChanged(ctx context.Context, userID string, from, to domain.UserStatus, changedBy string) error {
	event := UserStatusEvent{
		Type:      EventTypeUserStatusChanged,
		UserID:    userID,
		From:      from,
		To:        to,
		ChangedBy: changedBy,
		CreatedAt: time.Now().UTC(),
	}

	return p.publishEvent(ctx, p.topics.UserStatus, userID, event)
}

func (p *EventPublisher) publishEvent(ctx context.Context, topic, key string, event interface{}) error {
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", err, logger.Fields{
			"topic": topic,
			"key":   key,
		})
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.publisher.Publish(ctx, topic, key, value); err != nil {
		p.logger.Warn("Event was not published", logger.Fields{
			"topic": topic,
			"key":   key,
			"error": err.Error(),
		})
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
