package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/codec"
)

// Loader lit l'entité depuis la source de vérité.
type Loader[T any] func(ctx context.Context, id string) (T, error)

// ObjectCache est un cache read-through (type, id) -> snapshot.
// Il ne suit aucune mutation: c'est au writer d'appeler Evict.
type ObjectCache[T any] struct {
	client redis.UniversalClient
	kind   string
	codec  codec.Codec[T]
	load   Loader[T]
	ttl    time.Duration
	group  singleflight.Group
	log    *slog.Logger
}

func NewObjectCache[T any](client redis.UniversalClient, kind string, c codec.Codec[T], load Loader[T], ttl time.Duration, log *slog.Logger) *ObjectCache[T] {
	return &ObjectCache[T]{
		client: client,
		kind:   kind,
		codec:  c,
		load:   load,
		ttl:    ttl,
		log:    log,
	}
}

func (c *ObjectCache[T]) Key(id string) string {
	return fmt.Sprintf("%s:%s", c.kind, id)
}

func (c *ObjectCache[T]) Get(ctx context.Context, id string) (T, error) {
	key := c.Key(id)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		v, decodeErr := c.codec.Decode(data)
		if decodeErr == nil {
			return v, nil
		}
		c.log.WarnContext(ctx, "Dropping undecodable cache entry", "key", key, "error", decodeErr)
	case errors.Is(err, redis.Nil):
		// miss
	default:
		// Redis indisponible: le cache devient un no-op
		c.log.WarnContext(ctx, "Object cache unavailable, reading from store", "key", key, "error", err)
		return c.load(ctx, id)
	}

	// Les misses concurrents sur la même clé ne font qu'une seule lecture en base.
	// La lecture partagée ne dépend pas de l'annulation du premier appelant.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		v, err := c.load(shared, id)
		if err != nil {
			// NotFound inclus: jamais de cache négatif
			return nil, err
		}
		c.set(shared, key, v)
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Evict est le hook d'invalidation explicite des writers.
func (c *ObjectCache[T]) Evict(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.Key(id)).Err(); err != nil {
		return fmt.Errorf("cache: evict %s: %w", c.Key(id), err)
	}
	return nil
}

func (c *ObjectCache[T]) set(ctx context.Context, key string, v T) {
	data, err := c.codec.Encode(v)
	if err != nil {
		c.log.WarnContext(ctx, "Failed to encode cache entry", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "Failed to populate object cache", "key", key, "error", err)
	}
}
