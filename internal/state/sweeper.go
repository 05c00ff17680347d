package state

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/flowdeck/flowdeck/internal/config"
)

// registerSweeper runs the registry TTL sweep on a fixed cadence,
// independent of any run's own lifecycle. Abandoned viewers never
// unregister their runs; the sweep is what reclaims their markers.
func registerSweeper(lc fx.Lifecycle, coord *Coordinator, cfg config.Config, logger *zap.Logger) {
	interval := cfg.SweepInterval()
	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, runCancel := context.WithCancel(context.Background())
			cancel = runCancel
			go sweep(runCtx, coord, interval, logger)
			return nil
		},
		OnStop: func(context.Context) error {
			if cancel != nil {
				cancel()
			}
			return nil
		},
	})
}

func sweep(ctx context.Context, coord *Coordinator, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := coord.SweepExpiredRuns(ctx, time.Now()); removed > 0 {
				logger.Info("swept expired running-test markers", zap.Int("removed", removed))
			}
		}
	}
}
