package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/erp/pricing/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	cfg := telemetry.MetricsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "pricing-test",
	}

	mp, err := telemetry.NewMeterProvider(ctx, cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, mp)

	assert.False(t, mp.IsEnabled())
	assert.Equal(t, cfg, mp.GetConfig())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestNewMeterProvider_Enabled(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "pricing-test",
		Insecure:          true,
	}, logger)
	require.NoError(t, err)
	assert.True(t, mp.IsEnabled())

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	_ = mp.Shutdown(shutdownCtx)
}

// newManualMeter returns a meter whose data can be collected on demand.
func newManualMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return reader, provider
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumByAttr(t *testing.T, m metricdata.Metrics, key attribute.Key) map[string]int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	out := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(key)
		out[v.AsString()] += dp.Value
	}
	return out
}

func TestCounterAndHistogram(t *testing.T) {
	reader, provider := newManualMeter(t)
	meter := provider.Meter("test")
	ctx := context.Background()

	counter, err := telemetry.NewCounter(meter, "test_counter", "Test counter", "1")
	require.NoError(t, err)
	counter.Add(ctx, 5, telemetry.AttrOutcome.String("ok"))
	counter.Inc(ctx, telemetry.AttrOutcome.String("ok"))

	histogram, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:       "test_duration_seconds",
		Unit:       "s",
		Boundaries: telemetry.SmallDurationBuckets,
	})
	require.NoError(t, err)
	histogram.Record(ctx, 0.002)
	histogram.RecordDuration(ctx, 3*time.Millisecond)

	metrics := collect(t, reader)
	assert.Equal(t, int64(6), sumByAttr(t, metrics["test_counter"], telemetry.AttrOutcome)["ok"])

	hist, ok := metrics["test_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.Equal(t, telemetry.SmallDurationBuckets, hist.DataPoints[0].Bounds)
}

func TestNewPricingMetrics_NilMeter(t *testing.T) {
	pm, err := telemetry.NewPricingMetrics(telemetry.PricingMetricsConfig{})
	assert.Nil(t, pm)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
	assert.Equal(t, "NewPricingMetrics: meter cannot be nil", err.Error())
}

func TestPricingMetrics_Record(t *testing.T) {
	reader, provider := newManualMeter(t)
	ctx := context.Background()

	pm, err := telemetry.NewPricingMetrics(telemetry.PricingMetricsConfig{
		Meter:  provider.Meter("pricing"),
		Logger: zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	pm.RecordCalculation(ctx, "ok", "", 2*time.Millisecond)
	pm.RecordCalculation(ctx, "ok", "expired", time.Millisecond)
	pm.RecordCalculation(ctx, "error", "", time.Millisecond)
	pm.RecordValidation(ctx, "")
	pm.RecordValidation(ctx, "not_found")
	pm.RecordValidation(ctx, "not_found")
	pm.RecordUsage(ctx, "recorded", "redis")
	pm.RecordUsage(ctx, "limit_exceeded", "redis")

	metrics := collect(t, reader)

	calcs := sumByAttr(t, metrics["pricing_calculations_total"], telemetry.AttrOutcome)
	assert.Equal(t, int64(2), calcs["ok"])
	assert.Equal(t, int64(1), calcs["error"])

	validations := sumByAttr(t, metrics["pricing_promotion_validations_total"], telemetry.AttrReason)
	assert.Equal(t, map[string]int64{"none": 1, "not_found": 2}, validations)

	usages := sumByAttr(t, metrics["pricing_promotion_usages_total"], telemetry.AttrOutcome)
	assert.Equal(t, map[string]int64{"recorded": 1, "limit_exceeded": 1}, usages)

	hist, ok := metrics["pricing_calculation_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)
}

func TestPricingMetrics_NilReceiver(t *testing.T) {
	var pm *telemetry.PricingMetrics
	assert.NotPanics(t, func() {
		pm.RecordCalculation(context.Background(), "ok", "", time.Millisecond)
		pm.RecordValidation(context.Background(), "")
		pm.RecordUsage(context.Background(), "recorded", "memory")
	})
}
