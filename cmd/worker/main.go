package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/joho/godotenv"

	"github.com/riskibarqy/betledger-sync/internal/app"
	"github.com/riskibarqy/betledger-sync/internal/config"
	"github.com/riskibarqy/betledger-sync/internal/observability"
	"github.com/riskibarqy/betledger-sync/internal/platform/logging"
	"github.com/riskibarqy/betledger-sync/internal/usecase"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(slogger)

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer logger.Sync()

	shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownUptrace(ctx); err != nil {
			logger.Error("shutdown uptrace", "error", err)
		}
	}()

	stopPyroscope, err := observability.InitPyroscope(cfg, slogger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := stopPyroscope(); err != nil {
			logger.Error("stop pyroscope", "error", err)
		}
	}()

	pprofSrv, err := observability.StartPprofServer(cfg, slogger)
	if err != nil {
		logger.Error("start pprof server", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := observability.StopPprofServer(pprofSrv, slogger, 5*time.Second); err != nil {
			logger.Error("stop pprof server", "error", err)
		}
	}()

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(bootCtx, cfg, logger)
	bootCancel()
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("close app", "error", err)
		}
	}()

	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := application.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	runOnce := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout)
		defer cancel()

		report, err := application.RunService.Run(ctx)
		switch {
		case errors.Is(err, usecase.ErrRunInProgress):
			logger.Warn("scheduled run skipped, previous run still active")
		case err != nil:
			logger.Error("sync run failed", "error", err, "created", report.Registration.Created, "settled", report.Settlement.Settled)
		default:
			logger.Info("sync run finished",
				"skip_reason", report.SkipReason,
				"created", report.Registration.Created,
				"settled", report.Settlement.Settled,
			)
		}
	}

	if cfg.RunOnStart {
		logger.Info("run once on start")
		runOnce()
	}

	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Cron(cfg.RunCron).Do(runOnce); err != nil {
		logger.Error("schedule sync run", "error", err, "cron", cfg.RunCron)
		os.Exit(1)
	}
	scheduler.StartAsync()
	logger.Info("cron scheduled", "spec", cfg.RunCron)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("worker stopped")
}

func slogLevel(level logging.Level) slog.Level {
	switch level {
	case logging.LevelDebug:
		return slog.LevelDebug
	case logging.LevelWarn:
		return slog.LevelWarn
	case logging.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
