package browser

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/flowdeck/flowdeck/internal/config"
	"github.com/flowdeck/flowdeck/internal/runner"
)

func Module() fx.Option {
	return fx.Provide(func(cfg config.Config, logger *zap.Logger) runner.Executor {
		return NewClient(cfg.Executor.URL, cfg.ExecutorTimeout(), logger)
	})
}
