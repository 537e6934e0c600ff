// Package retention prunes old telemetry rows in the background. With
// RETENTION_DAYS unset the store stays append-only and this package does
// nothing.
package retention

import (
	"context"
	"time"

	"github.com/mmdba/supmmdba/internal/clock"
	"github.com/mmdba/supmmdba/internal/config"
	telemetrydomain "github.com/mmdba/supmmdba/internal/telemetry/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Cfg   config.Config
	Clock clock.Clock
	Repo  telemetrydomain.Repository
}

type Sweeper struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    telemetrydomain.Repository
	horizon time.Duration
}

func NewSweeper(p Params) *Sweeper {
	return &Sweeper{
		db:      p.DB,
		log:     p.Log.Named("retention"),
		clock:   p.Clock,
		repo:    p.Repo,
		horizon: time.Duration(p.Cfg.RetentionDays) * 24 * time.Hour,
	}
}

// RunOnce deletes every telemetry row older than the horizon. The user
// and session tables are never touched.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	cutoff := s.clock.Now().UTC().Add(-s.horizon)

	deletes := []struct {
		series string
		fn     func(context.Context, *gorm.DB, time.Time) (int64, error)
	}{
		{"machine_events", s.repo.DeleteEventsBefore},
		{"speed_samples", s.repo.DeleteSpeedBefore},
		{"production_samples", s.repo.DeleteProductionBefore},
	}

	for _, d := range deletes {
		removed, err := d.fn(ctx, s.db, cutoff)
		if err != nil {
			s.log.Error("retention sweep failed",
				zap.String("series", d.series),
				zap.Time("cutoff", cutoff),
				zap.Error(err),
			)
			return err
		}
		if removed > 0 {
			s.log.Info("retention sweep removed rows",
				zap.String("series", d.series),
				zap.Int64("rows", removed),
				zap.Time("cutoff", cutoff),
			)
		}
	}
	return nil
}

func (s *Sweeper) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// a failed sweep is retried on the next tick
			_ = s.RunOnce(ctx)
		}
	}
}

func register(lc fx.Lifecycle, cfg config.Config, sweeper *Sweeper) {
	if cfg.RetentionDays <= 0 {
		return
	}

	interval := cfg.RetentionInterval
	if interval <= 0 {
		interval = time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				sweeper.loop(ctx, interval)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

var Module = fx.Module("retention",
	fx.Provide(NewSweeper),
	fx.Invoke(register),
)
