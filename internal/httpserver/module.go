package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/flowdeck/flowdeck/internal/config"
	"github.com/flowdeck/flowdeck/internal/runner"
	"github.com/flowdeck/flowdeck/internal/state"
)

type Server struct {
	coord  *state.Coordinator
	orch   *runner.Orchestrator
	logger *zap.Logger
	srv    *http.Server
}

func Module() fx.Option {
	return fx.Options(
		fx.Provide(NewServer),
		fx.Invoke(RegisterHooks),
	)
}

func NewServer(cfg config.Config, coord *state.Coordinator, orch *runner.Orchestrator, logger *zap.Logger) *Server {
	s := &Server{coord: coord, orch: orch, logger: logger}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(s.Router(), "flowdeck"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)

	r.Post("/api/run-test", s.handleRunTest)
	r.Post("/api/run-single-step", s.handleRunSingleStep)

	r.Get("/api/flows", s.handleListFlows)
	r.Post("/api/flows", s.handleCreateFlow)
	r.Post("/api/flows/import", s.handleImportFlow)
	r.Get("/api/flows/{id}", s.handleGetFlow)
	r.Patch("/api/flows/{id}", s.handleUpdateFlow)
	r.Delete("/api/flows/{id}", s.handleDeleteFlow)
	r.Get("/api/flows/{id}/export", s.handleExportFlow)

	r.Get("/api/reports", s.handleListReports)
	r.Get("/api/reports/{id}/export", s.handleExportReport)

	r.Get("/api/running", s.handleListRunning)

	return r
}

func RegisterHooks(lc fx.Lifecycle, server *Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			server.logger.Info("http server starting", zap.String("addr", server.srv.Addr))
			go func() {
				if err := server.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					server.logger.Error("http server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			server.logger.Info("http server stopping")
			return server.srv.Shutdown(shutdownCtx)
		},
	})
}
