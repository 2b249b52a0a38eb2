package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/pryve/pryve-admin/pkg/config"
	"github.com/pryve/pryve-admin/pkg/logger"
)

// KafkaProducer представляет клиент для отправки сообщений в Kafka
type KafkaProducer struct {
	Writer *kafka.Writer
	Logger logger.Logger
}

// KafkaConsumer представляет клиент для чтения сообщений из Kafka
type KafkaConsumer struct {
	Reader *kafka.Reader
	Logger logger.Logger
}

// NewKafkaProducer создает нового производителя Kafka. Топик задается в каждом сообщении.
func NewKafkaProducer(cfg *config.KafkaConfig, log logger.Logger) *KafkaProducer {
	log.Info("Creating Kafka producer", logger.Fields{
		"brokers": cfg.Brokers,
	})

	// Hash по ключу: события одной сессии попадают в одну партицию
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		ErrorLogger:  kafka.LoggerFunc(errorLogger(log)),
	}

	return &KafkaProducer{
		Writer: writer,
		Logger: log,
	}
}

// Close закрывает соединение производителя
func (p *KafkaProducer) Close() error {
	p.Logger.Info("Closing Kafka producer")
	return p.Writer.Close()
}

// Publish отправляет сообщение в указанный топик
func (p *KafkaProducer) Publish(ctx context.Context, topic string, key string, value []byte) error {
	start := time.Now()
	err := p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
	elapsed := time.Since(start)

	if err != nil {
		p.Logger.Error("Failed to publish Kafka message", err, logger.Fields{
			"topic":   topic,
			"key":     key,
			"elapsed": elapsed.String(),
		})
		return fmt.Errorf("failed to publish Kafka message to topic %s: %w", topic, err)
	}

	p.Logger.Debug("Published Kafka message", logger.Fields{
		"topic":   topic,
		"key":     key,
		"elapsed": elapsed.String(),
	})
	return nil
}

// NewKafkaConsumer создает нового потребителя Kafka
func NewKafkaConsumer(topic, groupID string, cfg *config.KafkaConfig, log logger.Logger) *KafkaConsumer {
	log.Info("Creating Kafka consumer", logger.Fields{
		"brokers": cfg.Brokers,
		"topic":   topic,
		"groupID": groupID,
	})

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        time.Second,
		StartOffset:    kafka.LastOffset,
		CommitInterval: 0,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: time.Second,
		ErrorLogger:    kafka.LoggerFunc(errorLogger(log)),
	})

	return &KafkaConsumer{
		Reader: reader,
		Logger: log,
	}
}

// Close закрывает соединение потребителя
func (c *KafkaConsumer) Close() error {
	c.Logger.Info("Closing Kafka consumer")
	return c.Reader.Close()
}

// Fetch читает следующее сообщение без подтверждения
func (c *KafkaConsumer) Fetch(ctx context.Context) (kafka.Message, error) {
	message, err := c.Reader.FetchMessage(ctx)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to read Kafka message: %w", err)
	}

	c.Logger.Debug("Read Kafka message", logger.Fields{
		"topic":  message.Topic,
		"key":    string(message.Key),
		"offset": message.Offset,
	})
	return message, nil
}

// Commit подтверждает обработку сообщений
func (c *KafkaConsumer) Commit(ctx context.Context, messages ...kafka.Message) error {
	if err := c.Reader.CommitMessages(ctx, messages...); err != nil {
		c.Logger.Error("Failed to commit Kafka messages", err, logger.Fields{
			"topic": c.Reader.Config().Topic,
			"count": len(messages),
		})
		return fmt.Errorf("failed to commit Kafka messages: %w", err)
	}
	return nil
}

// CreateTopics создает топики в Kafka, если они не существуют
func CreateTopics(ctx context.Context, brokers []string, topics []string, log logger.Logger) error {
	log.Info("Creating Kafka topics", logger.Fields{
		"brokers": brokers,
		"topics":  topics,
	})

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to get Kafka controller: %w", err)
	}

	controllerConn, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka controller: %w", err)
	}
	defer controllerConn.Close()

	topicConfigs := make([]kafka.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		topicConfigs = append(topicConfigs, kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     3,
			ReplicationFactor: 1,
			ConfigEntries: []kafka.ConfigEntry{
				{
					ConfigName:  "retention.ms",
					ConfigValue: "86400000", // 1 день
				},
			},
		})
	}

	if err := controllerConn.CreateTopics(topicConfigs...); err != nil {
		return fmt.Errorf("failed to create Kafka topics: %w", err)
	}

	log.Info("Kafka topics ready", logger.Fields{"topics": topics})
	return nil
}

func errorLogger(log logger.Logger) func(string, ...interface{}) {
	return func(format string, args ...interface{}) {
		log.Warn("Kafka client error", logger.Fields{"detail": fmt.Sprintf(format, args...)})
	}
}
