package event

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func newUsageEvent() pricing.UsageRecordedEvent {
	hq := uuid.New()
	return pricing.UsageRecordedEvent{
		PromotionID:    uuid.New(),
		CustomerID:     uuid.New(),
		OrderID:        uuid.New(),
		HeadquartersID: &hq,
		RecordedAt:     time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC),
	}
}

func TestKafkaUsagePublisher_Publish(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "record-usage")
	defer span.End()

	w := &recordingWriter{}
	p := NewKafkaUsagePublisher(w, nil)
	evt := newUsageEvent()

	require.NoError(t, p.PublishUsageRecorded(ctx, evt))
	require.Len(t, w.messages, 1)
	msg := w.messages[0]

	assert.Equal(t, evt.PromotionID.String(), string(msg.Key))
	assert.Equal(t, evt.RecordedAt, msg.Time)

	var decoded pricing.UsageRecordedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, evt, decoded)

	headers := HeaderCarrier(msg.Headers)
	assert.Equal(t, EventTypeUsageRecorded, headers.Get("event_type"))
	assert.Contains(t, headers.Get("traceparent"), span.SpanContext().TraceID().String())

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaUsagePublisher_WriteError(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	w := &recordingWriter{err: assert.AnError}
	p := NewKafkaUsagePublisher(w, zap.New(core))

	err := p.PublishUsageRecorded(context.Background(), newUsageEvent())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, recorded.FilterMessage("Failed to publish promotion usage event").Len())
}

func TestHeaderCarrier(t *testing.T) {
	var c HeaderCarrier
	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("a", "3")

	assert.Equal(t, "3", c.Get("a"))
	assert.Equal(t, "", c.Get("missing"))
	assert.Equal(t, []string{"a", "b"}, c.Keys())
}

func TestNewUsagePublisher(t *testing.T) {
	t.Run("no brokers logs events", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		pub, closeFn := NewUsagePublisher(config.EventsConfig{}, zap.New(core))
		assert.IsType(t, &LogPublisher{}, pub)

		require.NoError(t, pub.PublishUsageRecorded(context.Background(), newUsageEvent()))
		assert.Equal(t, 1, recorded.FilterMessage("Promotion usage recorded").Len())
		assert.NoError(t, closeFn())
	})

	t.Run("brokers use kafka", func(t *testing.T) {
		pub, closeFn := NewUsagePublisher(config.EventsConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "pricing.promotion-usage",
		}, nil)
		kp, ok := pub.(*KafkaUsagePublisher)
		require.True(t, ok)
		writer := kp.writer.(*kafka.Writer)
		assert.Equal(t, "pricing.promotion-usage", writer.Topic)
		assert.Equal(t, 10*time.Millisecond, writer.BatchTimeout)
		assert.NoError(t, closeFn())
	})
}
