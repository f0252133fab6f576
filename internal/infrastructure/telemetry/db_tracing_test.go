package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestDBTracingConfigFrom(t *testing.T) {
	cfg := DBTracingConfigFrom(
		config.TelemetryConfig{Enabled: true, DBTraceEnabled: true},
		config.DatabaseConfig{Driver: "sqlite"},
	)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "sqlite", cfg.DBSystem)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)

	cfg = DBTracingConfigFrom(
		config.TelemetryConfig{Enabled: false, DBTraceEnabled: true},
		config.DatabaseConfig{Driver: "postgres", SlowThreshold: time.Second},
	)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "postgresql", cfg.DBSystem)
	assert.Equal(t, time.Second, cfg.SlowQueryThresh)
}

func TestDBTracingPlugin_Register_Disabled(t *testing.T) {
	db := setupTestDB(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{}, zap.NewNop())

	require.NoError(t, plugin.Register(db))
	assert.Nil(t, db.Callback().Create().Get("invoicer_trace:create:after"))
}

func TestDBTracingPlugin_Register_Enabled(t *testing.T) {
	db := setupTestDB(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: time.Second,
		DBSystem:        "sqlite",
	}, zap.NewNop())

	require.NoError(t, plugin.Register(db))
	assert.NotNil(t, db.Callback().Create().Get("invoicer_trace:create:after"))
	assert.NotNil(t, db.Callback().Query().Get("invoicer_trace:query:before"))

	require.NoError(t, db.WithContext(context.Background()).Create(&tracedRow{Name: "a"}).Error)
}

func TestDBTracingPlugin_AfterAnnotatesSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	now := time.Now()
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: 100 * time.Millisecond}, zap.NewNop())
	plugin.now = func() time.Time { return now }

	db := setupTestDB(t)
	tests := []struct {
		name    string
		elapsed time.Duration
		err     error
		slow    bool
		failed  bool
	}{
		{name: "fast", elapsed: 10 * time.Millisecond},
		{name: "slow", elapsed: 300 * time.Millisecond, slow: true},
		{name: "failed", elapsed: time.Millisecond, err: errors.New("disk full"), failed: true},
		{name: "not found is not a failure", elapsed: time.Millisecond, err: gorm.ErrRecordNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, span := tp.Tracer("test").Start(context.Background(), tt.name)
			tx := db.Session(&gorm.Session{NewDB: true, Context: ctx})
			tx.Statement.Context = ctx
			tx.Statement.Table = "traced_rows"
			tx.Statement.RowsAffected = 3
			tx.Error = tt.err

			plugin.before(tx)
			now = now.Add(tt.elapsed)
			plugin.after(tx)
			span.End()

			ended := recorder.Ended()
			got := ended[len(ended)-1]
			a := attrs(got)
			assert.Equal(t, int64(3), a["db.rows_affected"].AsInt64())
			assert.Equal(t, "traced_rows", a["db.sql.table"].AsString())
			_, slow := a["db.slow_query"]
			assert.Equal(t, tt.slow, slow)
			if tt.failed {
				assert.Equal(t, codes.Error, got.Status().Code)
			} else {
				assert.NotEqual(t, codes.Error, got.Status().Code)
			}
		})
	}
}
