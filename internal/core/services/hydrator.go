package services

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/ports"
)

const hydrateConcurrency = 8

// Hydrator résout post + auteur de chaque entrée via les caches objets.
type Hydrator struct {
	posts ports.ObjectCache[domain.Post]
	users ports.ObjectCache[domain.User]
	log   *slog.Logger
}

func NewHydrator(posts ports.ObjectCache[domain.Post], users ports.ObjectCache[domain.User], log *slog.Logger) *Hydrator {
	return &Hydrator{posts: posts, users: users, log: log}
}

// Hydrate conserve l'ordre des entrées. Une entrée dont le post n'existe plus
// est omise: ce n'est pas une erreur.
func (h *Hydrator) Hydrate(ctx context.Context, entries []domain.FeedEntry) ([]domain.FeedItem, error) {
	slots := make([]*domain.FeedItem, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateConcurrency)

	for i, entry := range entries {
		g.Go(func() error {
			post, err := h.posts.Get(gctx, entry.PostID)
			if domain.IsNotFound(err) {
				h.log.DebugContext(gctx, "Skipping dangling feed entry", "entry_id", entry.ID, "post_id", entry.PostID)
				return nil
			}
			if err != nil {
				return err
			}

			author, err := h.users.Get(gctx, post.AuthorID)
			if domain.IsNotFound(err) {
				// Projection en retard sur l'identity-service: on affiche le post quand même
				h.log.DebugContext(gctx, "Author missing from projection", "author_id", post.AuthorID)
				author, err = domain.User{ID: post.AuthorID}, nil
			}
			if err != nil {
				return err
			}

			slots[i] = &domain.FeedItem{Entry: entry, Post: post, Author: author}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]domain.FeedItem, 0, len(entries))
	for _, item := range slots {
		if item != nil {
			items = append(items, *item)
		}
	}
	return items, nil
}
