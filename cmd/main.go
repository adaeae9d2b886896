package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jupiterclapton/cenackle/newsfeed-service/config"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/adapters/primary/events"
	grpc_adapter "github.com/jupiterclapton/cenackle/newsfeed-service/internal/adapters/primary/grpc"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/adapters/secondary/eventbroker"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/adapters/secondary/repository"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/app"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/services"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/telemetry"
)

func main() {
	// 1. Config & Logger
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	log := telemetry.NewLogger(cfg.Env, os.Stdout)
	log.Info("🚀 Starting Newsfeed Service", "env", cfg.Env, "port", cfg.GRPCPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Télémétrie (Tracing)
	tp, err := telemetry.InitTracer(ctx, "newsfeed-service", cfg.Env, cfg.OtelEndpoint)
	if err != nil {
		log.Error("Failed to init tracer", "error", err)
	} else {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// 3. Schéma
	if err := repository.Migrate(ctx, cfg.DBUrl, log); err != nil {
		log.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	// 4. Infrastructure (Postgres, Redis, Neo4j, asynq)
	infra, err := app.OpenInfra(ctx, cfg, log)
	if err != nil {
		log.Error("Unable to open infrastructure", "error", err)
		os.Exit(1)
	}
	defer infra.Close(context.Background())

	// 5. Event Broker NATS
	nc, err := nats.Connect(cfg.NatsUrl, nats.Name("newsfeed-service"))
	if err != nil {
		log.Error("Unable to connect to NATS", "error", err)
		os.Exit(1)
	}
	log.Info("✅ Connected to NATS")

	// 6. Core
	core := app.NewCore(infra, cfg, log)
	postService := services.NewPostService(core.Repo, core.Posts, core.Authored, core.Fanout, eventbroker.NewNatsPublisher(nc, log), log)
	syncService := services.NewSyncService(core.Repo, core.Repo, core.Posts, core.Users, core.Authored, log)

	// 7. Consumer NATS (Driving Adapter - Async)
	if err := events.NewEventHandler(syncService, log).Subscribe(nc); err != nil {
		log.Error("Failed to subscribe to NATS", "error", err)
		os.Exit(1)
	}
	log.Info("👂 Listening for events (NATS)")

	// 8. Serveur gRPC (Driving Adapter - Sync)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Error("Failed to listen", "error", err)
		os.Exit(1)
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)
	grpc_adapter.NewServer(core.Feed, postService, cfg.Feed.PageSize, log).Register(grpcServer)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	go func() {
		log.Info("📡 Newsfeed gRPC listening", "address", lis.Addr())
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC server error", "error", err)
			os.Exit(1)
		}
	}()

	// 9. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	sig := <-quit
	log.Info("⚠️  Signal received, shutting down...", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("✅ gRPC Server stopped gracefully")
	case <-shutdownCtx.Done():
		log.Warn("⏳ Timeout reached, forcing server stop")
		grpcServer.Stop()
	}

	// Les messages NATS en cours de traitement finissent avant la fermeture
	if err := nc.Drain(); err != nil {
		log.Warn("NATS drain failed", "error", err)
	}

	log.Info("👋 Service stopped")
}
