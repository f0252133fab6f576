package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include query variables in spans
	SlowQueryThresh time.Duration // queries above it get db.slow_query
	DBSystem        string
}

// DBTracingConfigFrom builds the database tracing configuration
func DBTracingConfigFrom(t config.TelemetryConfig, db config.DatabaseConfig) DBTracingConfig {
	system := "postgresql"
	if db.Driver == "sqlite" {
		system = "sqlite"
	}
	thresh := db.SlowThreshold
	if thresh <= 0 {
		thresh = 200 * time.Millisecond
	}
	return DBTracingConfig{
		Enabled:         t.Enabled && t.DBTraceEnabled,
		LogFullSQL:      t.DBLogFullSQL,
		SlowQueryThresh: thresh,
		DBSystem:        system,
	}
}

// DBTracingPlugin registers otelgorm and annotates its spans with row
// counts, tables, failures and slow queries.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewDBTracingPlugin creates a new database tracing plugin
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

type startKey struct{}

// Register installs the plugin on db. It is a no-op when disabled.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	// the after hooks run before otelgorm ends its span
	cb := db.Callback()
	name := func(op string) string { return "invoicer_trace:" + op }
	err := errors.Join(
		cb.Create().Before("gorm:create").Register(name("create:before"), p.before),
		cb.Query().Before("gorm:query").Register(name("query:before"), p.before),
		cb.Update().Before("gorm:update").Register(name("update:before"), p.before),
		cb.Delete().Before("gorm:delete").Register(name("delete:before"), p.before),
		cb.Row().Before("gorm:row").Register(name("row:before"), p.before),
		cb.Raw().Before("gorm:raw").Register(name("raw:before"), p.before),
		cb.Create().After("gorm:create").Before("otel:after:create").Register(name("create:after"), p.after),
		cb.Query().After("gorm:query").Before("otel:after:query").Register(name("query:after"), p.after),
		cb.Update().After("gorm:update").Before("otel:after:update").Register(name("update:after"), p.after),
		cb.Delete().After("gorm:delete").Before("otel:after:delete").Register(name("delete:after"), p.after),
		cb.Row().After("gorm:row").Before("otel:after:row").Register(name("row:after"), p.after),
		cb.Raw().After("gorm:raw").Before("otel:after:raw").Register(name("raw:after"), p.after),
	)
	if err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

func (p *DBTracingPlugin) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, startKey{}, p.now())
	}
}

func (p *DBTracingPlugin) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if start, ok := ctx.Value(startKey{}).(time.Time); ok {
		elapsed := p.now().Sub(start)
		if elapsed > p.config.SlowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
