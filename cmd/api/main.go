package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"calcpad/internal/calculator"
	"calcpad/internal/config"
	"calcpad/internal/observability"
	"calcpad/internal/server"
)

func main() {

	if err := loadDotEnv(); err != nil {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Logger
	if err := observability.InitLogger(cfg.Log); err != nil {
		panic(err)
	}
	defer observability.SyncLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing, metrics, log export
	telemetryShutdown, err := initTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		observability.Logger.Fatal("telemetry init failed", zap.Error(err))
	}
	defer telemetryShutdown(context.Background())

	// Tape
	tape, db, err := openTape(cfg.Tape)
	if err != nil {
		observability.Logger.Fatal("opening tape failed", zap.String("path", cfg.Tape.Path), zap.Error(err))
	}
	if db != nil {
		defer db.Close()
	}

	// Sessions
	store := calculator.NewStore(cfg.Sessions.TTL, cfg.Sessions.Max)
	prometheus.MustRegister(store.Collector())
	go store.Run(ctx, cfg.Sessions.SweepInterval, func(removed int) {
		if removed > 0 {
			observability.Logger.Info("expired idle sessions",
				zap.Int("removed", removed),
				zap.Int("active", store.Len()),
			)
		}
	})

	h := &calculator.Handler{Sessions: store}
	if tape != nil {
		h.Recorder = tape
		h.Tape = tape
	}

	// Router
	router := server.NewRouter(server.Deps{Calculator: h})

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		observability.Logger.Info("server started",
			zap.String("addr", cfg.Server.Addr),
			zap.String("version", observability.Version),
			zap.Bool("tape", tape != nil),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Logger.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	waitForShutdown(srv, cfg.Server)
}

func waitForShutdown(srv *http.Server, cfg config.ServerConfig) {

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		observability.Logger.Warn("graceful shutdown failed", zap.Error(err))
		return
	}
	observability.Logger.Info("server stopped")
}
