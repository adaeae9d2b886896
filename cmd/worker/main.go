package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/jupiterclapton/cenackle/newsfeed-service/config"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/adapters/primary/tasks"
	secondarytasks "github.com/jupiterclapton/cenackle/newsfeed-service/internal/adapters/secondary/tasks"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/app"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	log := telemetry.NewLogger(cfg.Env, os.Stdout)
	log.Info("🚀 Starting Newsfeed Worker", "concurrency", cfg.Fanout.Concurrency)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.InitTracer(ctx, "newsfeed-worker", cfg.Env, cfg.OtelEndpoint)
	if err != nil {
		log.Error("Failed to init tracer", "error", err)
	} else {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	infra, err := app.OpenInfra(ctx, cfg, log)
	if err != nil {
		log.Error("Unable to open infrastructure", "error", err)
		os.Exit(1)
	}
	defer infra.Close(context.Background())

	core := app.NewCore(infra, cfg, log)
	handler := tasks.NewHandler(core.Fanout, log)

	srv := asynq.NewServer(app.RedisOpt(cfg), asynq.Config{
		Concurrency: cfg.Fanout.Concurrency,
		// Les batches passent avant les nouvelles tâches principales
		Queues: map[string]int{
			secondarytasks.QueueNewsfeeds: 6,
			secondarytasks.QueueDefault:   3,
		},
		ErrorHandler:    asynq.ErrorHandlerFunc(handler.HandleError),
		Logger:          slogAdapter{log},
		ShutdownTimeout: cfg.Fanout.ShutdownTimeout,
	})

	mux := asynq.NewServeMux()
	handler.Register(mux)

	if err := srv.Start(mux); err != nil {
		log.Error("Could not start asynq worker", "error", err)
		os.Exit(1)
	}
	log.Info("👷 Worker processing tasks", "queues", []string{secondarytasks.QueueNewsfeeds, secondarytasks.QueueDefault})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	sig := <-quit
	log.Info("⚠️  Signal received, shutting down...", "signal", sig)

	// Les tâches en cours non terminées sont remises en file par asynq
	srv.Shutdown()
	log.Info("👋 Worker stopped")
}

// slogAdapter branche les logs internes d'asynq sur slog.
type slogAdapter struct {
	log *slog.Logger
}

func (a slogAdapter) Debug(args ...any) { a.log.Debug("asynq", "detail", args) }
func (a slogAdapter) Info(args ...any)  { a.log.Info("asynq", "detail", args) }
func (a slogAdapter) Warn(args ...any)  { a.log.Warn("asynq", "detail", args) }
func (a slogAdapter) Error(args ...any) { a.log.Error("asynq", "detail", args) }
func (a slogAdapter) Fatal(args ...any) {
	a.log.Error("asynq fatal", "detail", args)
	os.Exit(1)
}
