package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// PricingMetrics holds the pricing engine's business metrics.
type PricingMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	calculations        *Counter
	calculationDuration *Histogram
	validations         *Counter
	usages              *Counter
}

// PricingMetricsConfig holds configuration for PricingMetrics.
type PricingMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewPricingMetrics creates the pricing instruments on the given meter.
func NewPricingMetrics(cfg PricingMetricsConfig) (*PricingMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	pm := &PricingMetrics{
		meter:  cfg.Meter,
		logger: cfg.Logger,
	}

	var err error
	pm.calculations, err = NewCounter(cfg.Meter,
		"pricing_calculations_total",
		"Total number of price calculations",
		"{calculation}",
	)
	if err != nil {
		return nil, err
	}

	pm.calculationDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "pricing_calculation_duration_seconds",
		Description: "Duration of order price calculations",
		Unit:        "s",
		Boundaries:  SmallDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	pm.validations, err = NewCounter(cfg.Meter,
		"pricing_promotion_validations_total",
		"Total number of promotion code validations by reason",
		"{validation}",
	)
	if err != nil {
		return nil, err
	}

	pm.usages, err = NewCounter(cfg.Meter,
		"pricing_promotion_usages_total",
		"Total number of promotion usage recordings by outcome",
		"{usage}",
	)
	if err != nil {
		return nil, err
	}

	pm.logger.Info("Pricing metrics initialized")
	return pm, nil
}

// RecordCalculation counts one calculation and records how long it took.
// outcome is "ok" or "error"; reason is the promotion reason, empty when none.
func (pm *PricingMetrics) RecordCalculation(ctx context.Context, outcome, reason string, d time.Duration) {
	if pm == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrOutcome.String(outcome), AttrReason.String(reasonLabel(reason))}
	pm.calculations.Inc(ctx, attrs...)
	pm.calculationDuration.RecordDuration(ctx, d, AttrOutcome.String(outcome))
}

// RecordValidation counts one promotion validation.
func (pm *PricingMetrics) RecordValidation(ctx context.Context, reason string) {
	if pm == nil {
		return
	}
	pm.validations.Inc(ctx, AttrReason.String(reasonLabel(reason)))
}

// RecordUsage counts one usage recording.
func (pm *PricingMetrics) RecordUsage(ctx context.Context, outcome, backend string) {
	if pm == nil {
		return
	}
	pm.usages.Inc(ctx, AttrOutcome.String(outcome), AttrUsageBackend.String(backend))
}

func reasonLabel(reason string) string {
	if reason == "" {
		return "none"
	}
	return reason
}

// ErrMeterNil is returned when a nil meter is provided.
var ErrMeterNil = &MetricsError{Op: "NewPricingMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics initialization error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
