package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/pryve/pryve-admin/pkg/logger"
)

// MessageReader читает и подтверждает сообщения топика
type MessageReader interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, messages ...kafka.Message) error
}

// UserStatusHandler обрабатывает событие смены статуса
type UserStatusHandler func(ctx context.Context, event UserStatusEvent) error

// UserStatusConsumer читает события смены статуса пользователей
type UserStatusConsumer struct {
	reader     MessageReader
	handler    UserStatusHandler
	logger     logger.Logger
	retryDelay time.Duration
}

// NewUserStatusConsumer создает новый экземпляр UserStatusConsumer
func NewUserStatusConsumer(reader MessageReader, handler UserStatusHandler, log logger.Logger) *UserStatusConsumer {
	return &UserStatusConsumer{
		reader:     reader,
		handler:    handler,
		logger:     log,
		retryDelay: time.Second,
	}
}

// Run читает сообщения до отмены ctx. Каждое сообщение подтверждается после обработчика,
// даже если он вернул ошибку: повторная доставка не нужна обработчикам с идемпотентным эффектом.
func (c *UserStatusConsumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.Fetch(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.logger.Warn("Failed to fetch user status event", logger.Fields{"error": err.Error()})
			if !c.wait(ctx) {
				return
			}
			continue
		}

		var event UserStatusEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Warn("Skipping malformed user status event", logger.Fields{
				"offset": msg.Offset,
				"error":  err.Error(),
			})
		} else if err := c.handler(ctx, event); err != nil {
			c.logger.Error("Failed to handle user status event", err, logger.Fields{"user_id": event.UserID})
		}

		if err := c.reader.Commit(ctx, msg); err != nil && ctx.Err() != nil {
			return
		}
	}
}

func (c *UserStatusConsumer) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.retryDelay):
		return true
	}
}
