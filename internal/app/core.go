package app

import (
	"context"
	"log/slog"

	"github.com/jupiterclapton/cenackle/newsfeed-service/config"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/adapters/secondary/cache"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/adapters/secondary/graph"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/adapters/secondary/repository"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/adapters/secondary/tasks"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/codec"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/services"
)

const (
	prefixNewsfeeds = "newsfeeds"
	prefixTweets    = "tweets"
	kindPost        = "post"
	kindUser        = "user"
)

// Core contient les adapters secondaires et les services du domaine.
type Core struct {
	Repo     *repository.PostgresRepo
	Entries  *cache.ListCache[domain.FeedEntry]
	Authored *cache.ListCache[domain.Post]
	Posts    *cache.ObjectCache[domain.Post]
	Users    *cache.ObjectCache[domain.User]

	Fanout *services.FanoutService
	Feed   *services.FeedService
}

func NewCore(infra *Infra, cfg config.Config, log *slog.Logger) *Core {
	repo := repository.NewPostgresRepo(infra.DB)

	c := &Core{
		Repo:     repo,
		Entries:  cache.NewListCache(infra.Redis, prefixNewsfeeds, cfg.Feed.ListLimit, cfg.Feed.ListTTL, codec.FeedEntryCodec{}, repo.NewestFeedEntries, log),
		Authored: cache.NewListCache(infra.Redis, prefixTweets, cfg.Feed.ListLimit, cfg.Feed.ListTTL, codec.PostCodec{}, repo.NewestPosts, log),
		Posts: cache.NewObjectCache(infra.Redis, kindPost, codec.PostCodec{}, func(ctx context.Context, id string) (domain.Post, error) {
			p, err := repo.FindPostByID(ctx, id)
			if err != nil {
				return domain.Post{}, err
			}
			return *p, nil
		}, cfg.Feed.ObjectCacheTTL, log),
		Users: cache.NewObjectCache(infra.Redis, kindUser, codec.UserCodec{}, func(ctx context.Context, id string) (domain.User, error) {
			u, err := repo.FindUserByID(ctx, id)
			if err != nil {
				return domain.User{}, err
			}
			return *u, nil
		}, cfg.Feed.ObjectCacheTTL, log),
	}

	scheduler := tasks.NewAsynqScheduler(infra.Tasks, cfg.Fanout.TimeLimit, cfg.Fanout.MaxRetry, log)
	followers := graph.NewNeo4jFollowerSource(infra.Graph)

	c.Fanout = services.NewFanoutService(repo, repo, c.Entries, followers, scheduler, cfg.Fanout.BatchSize, log)
	c.Feed = services.NewFeedService(c.Entries, repo, services.NewHydrator(c.Posts, c.Users, log), log)
	return c
}
