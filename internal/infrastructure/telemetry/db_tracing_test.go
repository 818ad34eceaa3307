package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedProduct struct {
	ID   uint   `gorm:"primaryKey"`
	Code string `gorm:"size:50"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedProduct{}))
	return db
}

func setupSpanRecorder(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, sr
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestNewDBTracingPlugin_DefaultsThreshold(t *testing.T) {
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zap.NewNop())
	assert.Equal(t, 200*time.Millisecond, p.config.SlowQueryThresh)
}

func TestRegisterOtelGorm_Disabled(t *testing.T) {
	db := setupTestDB(t)
	p := NewDBTracingPlugin(DefaultDBTracingConfig(), zaptest.NewLogger(t))

	require.NoError(t, p.RegisterOtelGorm(db))
	assert.Nil(t, db.Callback().Query().Get("otel_timing:after_query"))
}

func TestRegisterOtelGorm_Enabled(t *testing.T) {
	db := setupTestDB(t)
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.DBSystem = "sqlite"
	p := NewDBTracingPlugin(cfg, zaptest.NewLogger(t))

	require.NoError(t, p.RegisterOtelGorm(db))
	assert.NotNil(t, db.Callback().Query().Get("otel_timing:after_query"))
	assert.NotNil(t, db.Callback().Create().Get("otel_timing:before_create"))

	// The plugin name is taken after the first registration
	assert.Error(t, p.RegisterOtelGorm(db))
}

func TestAfterQuery_AnnotatesSpan(t *testing.T) {
	db := setupTestDB(t)
	tp, sr := setupSpanRecorder(t)
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: time.Nanosecond}, zap.NewNop())

	ctx, span := tp.Tracer("test").Start(context.Background(), "query")
	ctx = WithQueryStartTime(ctx)
	time.Sleep(time.Millisecond)

	tx := db.WithContext(ctx).Create(&tracedProduct{Code: "P-1"})
	require.NoError(t, tx.Error)
	p.afterQuery(tx)
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)

	attrs := map[string]interface{}{}
	for _, a := range ended[0].Attributes() {
		attrs[string(a.Key)] = a.Value.AsInterface()
	}
	assert.Equal(t, int64(1), attrs["db.rows_affected"])
	assert.Equal(t, "traced_products", attrs["db.sql.table"])
	assert.Equal(t, true, attrs["db.slow_query"])
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "slow_query_warning", ended[0].Events()[0].Name)
}

func TestAfterQuery_RecordNotFoundIsNotAnError(t *testing.T) {
	db := setupTestDB(t)
	tp, sr := setupSpanRecorder(t)
	p := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	ctx, span := tp.Tracer("test").Start(context.Background(), "lookup")
	var product tracedProduct
	tx := db.WithContext(ctx).First(&product, 42)
	require.ErrorIs(t, tx.Error, gorm.ErrRecordNotFound)
	p.afterQuery(tx)
	span.End()

	assert.Equal(t, codes.Unset, sr.Ended()[0].Status().Code)
}

func TestAfterQuery_MarksErrors(t *testing.T) {
	db := setupTestDB(t)
	tp, sr := setupSpanRecorder(t)
	p := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	ctx, span := tp.Tracer("test").Start(context.Background(), "broken")
	tx := db.WithContext(ctx).Exec("SELECT * FROM missing_table")
	require.Error(t, tx.Error)
	p.afterQuery(tx)
	span.End()

	assert.Equal(t, codes.Error, sr.Ended()[0].Status().Code)
}

func TestAfterQuery_WithoutRecordingSpan(t *testing.T) {
	db := setupTestDB(t)
	p := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	tx := db.WithContext(context.Background()).Create(&tracedProduct{Code: "P-2"})
	assert.NotPanics(t, func() { p.afterQuery(tx) })
}
