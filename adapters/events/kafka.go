// Package events publishes finished translation results.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/satriahrh/jurubahasa/domain/repositories"
	"github.com/satriahrh/jurubahasa/internal/metrics"
)

const defaultTopic = "jurubahasa.results"

// messageWriter is the subset of *kafka.Writer used by the publisher
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers []string
	Topic   string
}

// KafkaPublisher writes result events to a Kafka topic keyed by session ID.
// With no brokers configured it only logs the events.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	metrics *metrics.Metrics
	logger  *zap.Logger
}

var _ repositories.ResultPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher. An empty broker list selects log-only mode.
func NewKafkaPublisher(cfg Config, m *metrics.Metrics, logger *zap.Logger) *KafkaPublisher {
	topic := cfg.Topic
	if topic == "" {
		topic = defaultTopic
		logger.Info("Using default Kafka topic", zap.String("topic", topic))
	}

	p := &KafkaPublisher{topic: topic, metrics: m, logger: logger}
	if len(cfg.Brokers) == 0 {
		logger.Info("Kafka disabled, using log-only mode")
		return p
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Transport:              &kafka.Transport{Dial: dialer.DialFunc},
	}

	logger.Info("Kafka publisher initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", topic))
	return p
}

// Enabled reports whether events are sent to Kafka
func (p *KafkaPublisher) Enabled() bool {
	return p.writer != nil
}

// PublishResult implements repositories.ResultPublisher
func (p *KafkaPublisher) PublishResult(ctx context.Context, event repositories.ResultEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal result event", zap.Error(err), zap.String("sessionID", event.SessionID))
		p.metrics.RecordPublish("marshal_error", err)
		return err
	}

	p.logger.Debug("Publishing result event",
		zap.String("topic", p.topic),
		zap.String("sessionID", event.SessionID),
		zap.String("phase", string(event.Phase)),
		zap.ByteString("payload", payload))

	if p.writer == nil {
		p.metrics.RecordPublish("logged", nil)
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(event.SessionID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "phase", Value: []byte(event.Phase)},
			{Key: "captureId", Value: []byte(event.CaptureID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to write to Kafka",
			zap.Error(err),
			zap.String("topic", p.topic),
			zap.String("sessionID", event.SessionID))
		p.metrics.RecordPublish("error", err)
		return err
	}

	p.metrics.RecordPublish("published", nil)
	return nil
}

// Close flushes and closes the Kafka writer
func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Error closing Kafka writer", zap.Error(err))
		return err
	}
	return nil
}
