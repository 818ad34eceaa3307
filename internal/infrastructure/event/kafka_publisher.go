// Package event publishes promotion usage events to other systems.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/infrastructure/config"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// EventTypeUsageRecorded is the event type header value for usage events
const EventTypeUsageRecorded = "pricing.promotion_usage.recorded"

const headerEventType = "event_type"

// MessageWriter is the subset of *kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaUsagePublisher implements pricing.UsageEventPublisher on a Kafka topic.
// Messages are keyed by promotion id so usages of one promotion stay ordered.
type KafkaUsagePublisher struct {
	writer MessageWriter
	logger *zap.Logger
}

// NewKafkaWriter creates a Kafka writer for the configured brokers and topic
func NewKafkaWriter(cfg config.EventsConfig) *kafka.Writer {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaUsagePublisher creates a publisher writing through the given writer
func NewKafkaUsagePublisher(writer MessageWriter, logger *zap.Logger) *KafkaUsagePublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaUsagePublisher{writer: writer, logger: logger}
}

// PublishUsageRecorded writes the event as JSON with trace context in the headers
func (p *KafkaUsagePublisher) PublishUsageRecorded(ctx context.Context, evt pricing.UsageRecordedEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal usage event: %w", err)
	}

	headers := HeaderCarrier{{Key: headerEventType, Value: []byte(EventTypeUsageRecorded)}}
	otel.GetTextMapPropagator().Inject(ctx, &headers)

	msg := kafka.Message{
		Key:     []byte(evt.PromotionID.String()),
		Value:   payload,
		Headers: headers,
		Time:    evt.RecordedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish promotion usage event",
			zap.String("promotion_id", evt.PromotionID.String()),
			zap.String("order_id", evt.OrderID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish usage event: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the writer
func (p *KafkaUsagePublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher drops usage events after logging them. It is used when no
// brokers are configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a new LogPublisher
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

// PublishUsageRecorded logs the event at debug level
func (p *LogPublisher) PublishUsageRecorded(_ context.Context, evt pricing.UsageRecordedEvent) error {
	p.logger.Debug("Promotion usage recorded",
		zap.String("promotion_id", evt.PromotionID.String()),
		zap.String("customer_id", evt.CustomerID.String()),
		zap.String("order_id", evt.OrderID.String()),
	)
	return nil
}

// NewUsagePublisher picks the Kafka publisher when brokers are configured and
// the log publisher otherwise. The returned function closes the publisher.
func NewUsagePublisher(cfg config.EventsConfig, logger *zap.Logger) (pricing.UsageEventPublisher, func() error) {
	if len(cfg.Brokers) == 0 {
		return NewLogPublisher(logger), func() error { return nil }
	}
	p := NewKafkaUsagePublisher(NewKafkaWriter(cfg), logger)
	return p, p.Close
}

var (
	_ pricing.UsageEventPublisher = (*KafkaUsagePublisher)(nil)
	_ pricing.UsageEventPublisher = (*LogPublisher)(nil)
)
