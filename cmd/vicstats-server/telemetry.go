package main

import (
	"context"
	"log/slog"
	"os"
	"time"
	"vicstats-backend/lib/telemetry"

	"github.com/lmittmann/tint"
)

func initSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}

func InitTelemetry(ctx context.Context, verbose bool) {
	initSlog(verbose)

	t, err := telemetry.SetupFromEnv(ctx, "vicstats-server")
	if os.IsNotExist(err) {
		slog.Warn("no telemetry.json5 found, telemetry disabled")
		return
	}
	if err != nil {
		slog.Error("setup telemetry", "err", err.Error())
		os.Exit(1)
	}
	telemetry.InstrumentPerfStats(ctx)

	go func() {
		<-ctx.Done()
		err := t.Shutdown(context.Background())
		if err != nil {
			slog.Warn("telemetry shutdown", "err", err)
		}
	}()
}
