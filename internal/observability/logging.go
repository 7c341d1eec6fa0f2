package observability

import (
	"context"

	"calcpad/internal/config"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogging tees Logger into an OTLP log exporter. Call it after InitLogger:
// the local core keeps its level and output, the exported copy carries the
// telemetry resource.
func InitLogging(ctx context.Context, cfg config.TelemetryConfig) (func(context.Context) error, error) {

	exporter, err := otlploghttp.New(ctx)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(
			sdklog.NewBatchProcessor(exporter),
		),
	)

	Logger = teeOTel(Logger, otelzap.NewCore(ServiceName(cfg), otelzap.WithLoggerProvider(provider)))

	return provider.Shutdown, nil
}

// teeOTel sends every entry that the existing core accepts to the OTel core
// as well, so the configured log level bounds both.
func teeOTel(logger *zap.Logger, otelCore zapcore.Core) *zap.Logger {
	local := logger.Core()
	level := zapcore.LevelOf(local)
	if level == zapcore.InvalidLevel {
		return zap.New(zapcore.NewTee(local, otelCore))
	}
	filtered, err := zapcore.NewIncreaseLevelCore(otelCore, level)
	if err != nil {
		return zap.New(zapcore.NewTee(local, otelCore))
	}
	return zap.New(zapcore.NewTee(local, filtered))
}
