package retention

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/mmdba/supmmdba/internal/clock"
	"github.com/mmdba/supmmdba/internal/config"
	telemetrydomain "github.com/mmdba/supmmdba/internal/telemetry/domain"
	"github.com/mmdba/supmmdba/internal/telemetry/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func TestRunOnce_RemovesOnlyExpiredRows(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&telemetrydomain.MachineEvent{},
		&telemetrydomain.SpeedSample{},
		&telemetrydomain.ProductionSample{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	repo := repository.Provide()
	ctx := context.Background()

	insertAt := func(ts time.Time) {
		require.NoError(t, repo.InsertEvent(ctx, db, &telemetrydomain.MachineEvent{
			ID: node.Generate(), EventCode: "ev", Value: "v",
			Origin: "Rotuladora", EventType: "Status", Timestamp: ts,
		}))
		require.NoError(t, repo.InsertSpeed(ctx, db, &telemetrydomain.SpeedSample{
			ID: node.Generate(), EventCode: "vel", Value: "1.0",
			Origin: "Rotuladora", EventType: "Velocidade", Timestamp: ts,
		}))
		require.NoError(t, repo.InsertProduction(ctx, db, &telemetrydomain.ProductionSample{
			ID: node.Generate(), EventCode: "cnt", Value: "1",
			Origin: "Rotuladora", EventType: "Contagem", Timestamp: ts,
		}))
	}

	insertAt(testNow.Add(-31 * 24 * time.Hour)) // expired
	insertAt(testNow.Add(-29 * 24 * time.Hour)) // kept
	insertAt(testNow.Add(-time.Hour))           // kept

	sweeper := NewSweeper(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Cfg:   config.Config{RetentionDays: 30},
		Clock: clock.NewFakeClock(testNow),
		Repo:  repo,
	})
	require.NoError(t, sweeper.RunOnce(ctx))

	for _, table := range []string{"machine_events", "speed_samples", "production_samples"} {
		var count int64
		require.NoError(t, db.Table(table).Count(&count).Error)
		assert.EqualValues(t, 2, count, table)
	}
}
