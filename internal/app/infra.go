// Package app assemble l'infrastructure et le core partagés par l'API et le worker.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/exaring/otelpgx"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/jupiterclapton/cenackle/newsfeed-service/config"
)

// Infra regroupe les connexions ouvertes au démarrage.
type Infra struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
	Graph neo4j.DriverWithContext
	Tasks *asynq.Client
	log   *slog.Logger
}

func OpenInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*Infra, error) {
	infra := &Infra{log: log}

	// 1. Postgres (source de vérité)
	poolCfg, err := pgxpool.ParseConfig(cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}
	poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()

	infra.DB, err = pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}
	if err := infra.DB.Ping(ctx); err != nil {
		infra.Close(ctx)
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	log.Info("✅ Connected to Postgres")

	// 2. Redis (caches + substrat de tâches)
	infra.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisotel.InstrumentTracing(infra.Redis); err != nil {
		infra.Close(ctx)
		return nil, fmt.Errorf("instrument redis: %w", err)
	}
	if err := infra.Redis.Ping(ctx).Err(); err != nil {
		infra.Close(ctx)
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Info("✅ Connected to Redis")

	// 3. Neo4j (graphe social); le driver se connecte au premier usage
	infra.Graph, err = neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		infra.Close(ctx)
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	// 4. Client asynq (même Redis, pool de connexions dédié)
	infra.Tasks = asynq.NewClient(RedisOpt(cfg))

	return infra, nil
}

// Close ferme dans l'ordre inverse de l'ouverture.
func (i *Infra) Close(ctx context.Context) {
	var errs []error
	if i.Tasks != nil {
		errs = append(errs, i.Tasks.Close())
	}
	if i.Graph != nil {
		errs = append(errs, i.Graph.Close(ctx))
	}
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.DB != nil {
		i.DB.Close()
	}
	if err := errors.Join(errs...); err != nil {
		i.log.Warn("Error while closing infrastructure", "error", err)
	}
}

// RedisOpt est partagé par le client asynq de l'API et le serveur du worker.
func RedisOpt(cfg config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.RedisAddr}
}
