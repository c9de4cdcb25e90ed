package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/storehub/backend/internal/infrastructure/config"
)

type widget struct {
	ID   uint
	Name string
}

func TestInstrumentDB_RecordsQueries(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&widget{}))

	mp, reader := newTestMeter(t)
	in, err := InstrumentDB(db, config.TelemetryConfig{}, mp.Meter("db"), zap.NewNop())
	require.NoError(t, err)
	defer in.Close()

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&widget{Name: "a"}).Error)
	var got []widget
	require.NoError(t, db.WithContext(ctx).Find(&got).Error)
	var n int64
	require.NoError(t, db.WithContext(ctx).Raw("SELECT count(*) FROM widgets").Scan(&n).Error)

	metrics := collect(t, reader)
	queries := metrics["storehub_db_query_total"]
	assert.Equal(t, int64(1), sumFor(t, queries, AttrDBOperation, "INSERT"))
	assert.Equal(t, int64(2), sumFor(t, queries, AttrDBOperation, "SELECT"))

	pool, ok := metrics["storehub_db_pool_connections"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Len(t, pool.DataPoints, 3)
}

func TestInstrumentDB_NilMeter(t *testing.T) {
	_, err := InstrumentDB(nil, config.TelemetryConfig{}, nil, nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestSQLOperation(t *testing.T) {
	assert.Equal(t, "SELECT", sqlOperation("  select 1"))
	assert.Equal(t, "DELETE", sqlOperation("DELETE FROM x"))
	assert.Equal(t, "OTHER", sqlOperation("VACUUM"))
}
