package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/storehub/backend/internal/infrastructure/config"
)

const defaultSlowQuery = 200 * time.Millisecond

type queryStartKey struct{}

// DBInstrumentation holds the GORM hooks registered by InstrumentDB.
type DBInstrumentation struct {
	slow       time.Duration
	queries    *Counter
	duration   *Histogram
	slowTotal  *Counter
	poolReg    metric.Registration
	recordSpan bool
}

// InstrumentDB registers otelgorm tracing (when cfg.DBTraceEnabled) and query
// and pool metrics on db. meter may be a no-op meter.
func InstrumentDB(db *gorm.DB, cfg config.TelemetryConfig, meter metric.Meter, logger *zap.Logger) (*DBInstrumentation, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	in := &DBInstrumentation{slow: cfg.DBSlowQueryThresh}
	if in.slow <= 0 {
		in.slow = defaultSlowQuery
	}

	if cfg.DBTraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName("postgresql")}
		if !cfg.DBLogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return nil, err
		}
		in.recordSpan = true
	}

	var err error
	if in.queries, err = NewCounter(meter, "storehub_db_query_total", "Database queries by operation", "{query}"); err != nil {
		return nil, err
	}
	if in.duration, err = NewHistogram(meter, "storehub_db_query_duration_seconds", "Database query latency", "s", DBDurationBuckets); err != nil {
		return nil, err
	}
	if in.slowTotal, err = NewCounter(meter, "storehub_db_slow_query_total", "Queries slower than the configured threshold", "{query}"); err != nil {
		return nil, err
	}
	if err := in.registerPoolGauge(db, meter); err != nil {
		return nil, err
	}
	if err := in.registerCallbacks(db); err != nil {
		return nil, err
	}

	logger.Info("Database instrumentation registered",
		zap.Bool("tracing", cfg.DBTraceEnabled),
		zap.Duration("slow_query_threshold", in.slow),
	)
	return in, nil
}

// Close unregisters the pool gauge callback.
func (in *DBInstrumentation) Close() error {
	if in.poolReg == nil {
		return nil
	}
	return in.poolReg.Unregister()
}

func (in *DBInstrumentation) registerPoolGauge(db *gorm.DB, meter metric.Meter) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	conns, err := meter.Int64ObservableGauge("storehub_db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return err
	}
	in.poolReg, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := sqlDB.Stats()
		o.ObserveInt64(conns, int64(s.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(conns, int64(s.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(conns, int64(s.MaxOpenConnections), metric.WithAttributes(AttrDBState.String("max")))
		return nil
	}, conns)
	return err
}

func (in *DBInstrumentation) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("storehub:before_create", in.before),
		cb.Query().Before("gorm:query").Register("storehub:before_query", in.before),
		cb.Update().Before("gorm:update").Register("storehub:before_update", in.before),
		cb.Delete().Before("gorm:delete").Register("storehub:before_delete", in.before),
		cb.Row().Before("gorm:row").Register("storehub:before_row", in.before),
		cb.Raw().Before("gorm:raw").Register("storehub:before_raw", in.before),
		cb.Create().After("gorm:create").Register("storehub:after_create", in.after("INSERT")),
		cb.Query().After("gorm:query").Register("storehub:after_query", in.after("SELECT")),
		cb.Update().After("gorm:update").Register("storehub:after_update", in.after("UPDATE")),
		cb.Delete().After("gorm:delete").Register("storehub:after_delete", in.after("DELETE")),
		cb.Row().After("gorm:row").Register("storehub:after_row", in.after("")),
		cb.Raw().After("gorm:raw").Register("storehub:after_raw", in.after("")),
	)
}

func (in *DBInstrumentation) before(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, queryStartKey{}, time.Now())
}

// after returns the post-operation hook; an empty op is derived from the SQL.
func (in *DBInstrumentation) after(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		operation := op
		if operation == "" {
			operation = sqlOperation(db.Statement.SQL.String())
		}
		var elapsed time.Duration
		if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
			elapsed = time.Since(start)
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		in.queries.Inc(ctx, AttrDBOperation.String(operation))
		in.duration.RecordDuration(ctx, elapsed, AttrDBOperation.String(operation))
		slow := elapsed > in.slow
		if slow {
			in.slowTotal.Inc(ctx, AttrDBTable.String(table))
		}
		if in.recordSpan {
			annotateSpan(trace.SpanFromContext(ctx), db, table, elapsed, slow)
		}
	}
}

func annotateSpan(span trace.Span, db *gorm.DB, table string, elapsed time.Duration, slow bool) {
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(
		attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
		attribute.String("db.sql.table", table),
	)
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}
	if slow {
		span.SetAttributes(attribute.Bool("db.slow_query", true))
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
		))
	}
}

func sqlOperation(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, op) {
			return op
		}
	}
	return "OTHER"
}
