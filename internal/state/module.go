package state

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/flowdeck/flowdeck/internal/config"
	"github.com/flowdeck/flowdeck/internal/storage"
)

func Module() fx.Option {
	return fx.Options(
		fx.Provide(NewBackend),
		fx.Provide(func(backend storage.Backend, cfg config.Config, logger *zap.Logger) *Coordinator {
			return NewCoordinator(backend, logger, Options{
				MaxReports: cfg.State.MaxReports,
				RunTTL:     cfg.RunTTL(),
			})
		}),
		fx.Invoke(registerHooks),
		fx.Invoke(registerSweeper),
	)
}

// NewBackend picks the durable storage backend: postgres when a DSN is
// configured, the shared state directory otherwise.
func NewBackend(cfg config.Config, logger *zap.Logger) (storage.Backend, error) {
	if cfg.State.PostgresDSN != "" {
		logger.Info("using postgres state backend")
		return storage.NewPGStore(cfg.State.PostgresDSN)
	}
	logger.Info("using file state backend", zap.String("dir", cfg.State.Dir))
	return storage.NewFileStore(cfg.State.Dir)
}

func registerHooks(lc fx.Lifecycle, coord *Coordinator, backend storage.Backend, logger *zap.Logger) {
	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := coord.Load(ctx); err != nil {
				return err
			}
			watchCtx, watchCancel := context.WithCancel(context.Background())
			cancel = watchCancel
			if err := coord.WatchExternal(watchCtx); err != nil {
				watchCancel()
				return err
			}
			logger.Info("state loaded")
			return nil
		},
		OnStop: func(context.Context) error {
			if cancel != nil {
				cancel()
			}
			return backend.Close()
		},
	})
}
