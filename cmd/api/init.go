package main

import (
	"context"
	"database/sql"
	"errors"

	"calcpad/internal/calculator"
	"calcpad/internal/config"
	"calcpad/internal/database"
	"calcpad/internal/database/repository"
	"calcpad/internal/observability"
	"calcpad/internal/service"
)

type shutdownFunc func(context.Context) error

// initTelemetry starts the exporters enabled in cfg and registers the
// calculator instruments. The returned shutdown flushes them in reverse order.
func initTelemetry(ctx context.Context, cfg config.TelemetryConfig) (shutdownFunc, error) {
	var shutdowns []shutdownFunc
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	steps := []struct {
		enabled bool
		init    func(context.Context, config.TelemetryConfig) (func(context.Context) error, error)
	}{
		{cfg.Traces, observability.InitTracing},
		{cfg.Metrics, observability.InitMetrics},
		{cfg.Logs, observability.InitLogging},
	}
	for _, s := range steps {
		if !s.enabled {
			continue
		}
		fn, err := s.init(ctx, cfg)
		if err != nil {
			_ = shutdown(ctx)
			return nil, err
		}
		shutdowns = append(shutdowns, fn)
	}

	if err := calculator.InitMetrics(); err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	return shutdown, nil
}

// openTape opens the evaluation tape when enabled. The returned service is
// nil when the tape is off.
func openTape(cfg config.TapeConfig) (*service.TapeService, *sql.DB, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}
	db, err := database.OpenMigrated(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	return &service.TapeService{Entries: repository.NewTapeRepo(db)}, db, nil
}
