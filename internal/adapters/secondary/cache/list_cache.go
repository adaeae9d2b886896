package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/codec"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
)

// Source renvoie les `limit` éléments les plus récents d'un owner depuis la base.
type Source[T any] func(ctx context.Context, ownerID string, limit int) ([]T, error)

// fillScript ne remplit la clé que si elle n'existe pas encore:
// deux lectures à froid concurrentes ne peuvent pas doubler la fenêtre.
// ARGV[1] = ttl (ms), puis des paires (score, membre).
var fillScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
for i = 2, #ARGV, 2 do
	redis.call('ZADD', KEYS[1], ARGV[i], ARGV[i + 1])
end
redis.call('PEXPIRE', KEYS[1], ARGV[1])
return 1
`)

// pushScript: -1 si la clé est absente (le caller recharge depuis la base),
// sinon ZADD + capping en une seule opération atomique.
// ARGV[1] = score, ARGV[2] = membre, ARGV[3] = capacité.
var pushScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
local added = redis.call('ZADD', KEYS[1], ARGV[1], ARGV[2])
redis.call('ZREMRANGEBYRANK', KEYS[1], 0, -(tonumber(ARGV[3]) + 1))
return added
`)

// ListCache garde, par owner, les `limit` éléments les plus récents (newest first).
//
// Si la fenêtre contient moins de `limit` éléments, elle EST l'historique complet:
// elle n'a pu être remplie que par une lecture en base qui a renvoyé moins de `limit` lignes.
// Le score est le created_at en microsecondes; à score égal Redis trie par membre,
// donc par ID (premier champ encodé), ce qui reproduit le "created_at DESC, id DESC" de la base.
type ListCache[T domain.Timestamped] struct {
	client redis.UniversalClient
	prefix string
	limit  int
	ttl    time.Duration
	codec  codec.Codec[T]
	source Source[T]
	log    *slog.Logger
}

func NewListCache[T domain.Timestamped](client redis.UniversalClient, prefix string, limit int, ttl time.Duration, c codec.Codec[T], source Source[T], log *slog.Logger) *ListCache[T] {
	return &ListCache[T]{
		client: client,
		prefix: prefix,
		limit:  limit,
		ttl:    ttl,
		codec:  c,
		source: source,
		log:    log,
	}
}

func (c *ListCache[T]) Key(ownerID string) string {
	return fmt.Sprintf("%s:%s", c.prefix, ownerID)
}

func (c *ListCache[T]) Limit() int { return c.limit }

// Load renvoie la fenêtre (hit) ou les `limit` plus récents depuis la base (miss),
// avec le même type de retour dans les deux cas.
func (c *ListCache[T]) Load(ctx context.Context, ownerID string) ([]T, error) {
	key := c.Key(ownerID)

	// Une seule commande: un ensemble vide <=> clé absente (on ne stocke jamais de fenêtre vide)
	members, err := c.client.ZRevRange(ctx, key, 0, int64(c.limit-1)).Result()
	if err != nil {
		c.log.WarnContext(ctx, "List cache unavailable, reading from store", "key", key, "error", err)
		return c.source(ctx, ownerID, c.limit)
	}

	if len(members) > 0 {
		items, err := c.decodeAll(members)
		if err == nil {
			return items, nil
		}
		c.log.WarnContext(ctx, "Dropping undecodable list cache", "key", key, "error", err)
		_ = c.Invalidate(ctx, ownerID)
	}

	return c.fill(ctx, ownerID)
}

// Push ajoute un élément déjà stocké en base. Clé absente => chargement complet,
// qui contient naturellement l'élément.
func (c *ListCache[T]) Push(ctx context.Context, ownerID string, item T) error {
	key := c.Key(ownerID)

	member, err := c.codec.Encode(item)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}

	res, err := c.push(ctx, ownerID, member, score(item))
	if err != nil || res >= 0 {
		return err
	}

	if _, err := c.fill(ctx, ownerID); err != nil {
		return err
	}

	// Un Load à froid concurrent a pu poser avant nous un instantané antérieur à l'item:
	// notre fill est alors un no-op. Le ZADD est idempotent, on le rejoue.
	_, err = c.push(ctx, ownerID, member, score(item))
	return err
}

// push renvoie -1 si la clé est absente.
func (c *ListCache[T]) push(ctx context.Context, ownerID string, member []byte, score string) (int, error) {
	key := c.Key(ownerID)

	res, err := pushScript.Run(ctx, c.client, []string{key}, score, member, c.limit).Int()
	if err != nil {
		// La fenêtre ne reflète plus la base: on la jette pour qu'elle soit reconstruite
		if invErr := c.Invalidate(ctx, ownerID); invErr != nil {
			c.log.ErrorContext(ctx, "List cache push and invalidation failed", "key", key, "error", err, "invalidate_error", invErr)
		}
		return 0, fmt.Errorf("cache: push %s: %w", key, err)
	}
	return res, nil
}

func (c *ListCache[T]) Invalidate(ctx context.Context, ownerID string) error {
	if err := c.client.Del(ctx, c.Key(ownerID)).Err(); err != nil {
		return fmt.Errorf("cache: invalidate %s: %w", c.Key(ownerID), err)
	}
	return nil
}

func (c *ListCache[T]) fill(ctx context.Context, ownerID string) ([]T, error) {
	key := c.Key(ownerID)

	items, err := c.source(ctx, ownerID, c.limit)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	args := make([]any, 0, 1+2*len(items))
	args = append(args, c.ttl.Milliseconds())
	for _, item := range items {
		member, err := c.codec.Encode(item)
		if err != nil {
			c.log.WarnContext(ctx, "Skipping list cache fill", "key", key, "error", err)
			return items, nil
		}
		args = append(args, score(item), member)
	}

	if err := fillScript.Run(ctx, c.client, []string{key}, args...).Err(); err != nil {
		c.log.WarnContext(ctx, "Failed to fill list cache", "key", key, "error", err)
	}
	return items, nil
}

func (c *ListCache[T]) decodeAll(members []string) ([]T, error) {
	items := make([]T, 0, len(members))
	for _, m := range members {
		item, err := c.codec.Decode([]byte(m))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func score(item domain.Timestamped) string {
	return strconv.FormatInt(item.Timestamp().UnixMicro(), 10)
}
