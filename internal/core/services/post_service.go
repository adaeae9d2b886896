package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/ports"
)

type PostService struct {
	store     ports.PostStore
	cache     ports.ObjectCache[domain.Post]
	authored  ports.ListCache[domain.Post]
	fanout    ports.FanoutService
	publisher ports.EventPublisher
	log       *slog.Logger
}

func NewPostService(
	store ports.PostStore,
	cache ports.ObjectCache[domain.Post],
	authored ports.ListCache[domain.Post],
	fanout ports.FanoutService,
	publisher ports.EventPublisher,
	log *slog.Logger,
) *PostService {
	return &PostService{
		store:     store,
		cache:     cache,
		authored:  authored,
		fanout:    fanout,
		publisher: publisher,
		log:       log,
	}
}

// CreatePost ne renvoie une erreur que si le post n'a pas été persisté.
// Tout ce qui suit la sauvegarde est best-effort.
func (s *PostService) CreatePost(ctx context.Context, authorID, content string) (*domain.Post, error) {
	post, err := domain.NewPost(authorID, content)
	if err != nil {
		return nil, err
	}

	if err := s.store.SavePost(ctx, post); err != nil {
		return nil, fmt.Errorf("post: save: %w", err)
	}

	if err := s.authored.Push(ctx, post.AuthorID, *post); err != nil {
		s.log.WarnContext(ctx, "Failed to push post to author list", "post_id", post.ID, "error", err)
	}

	if err := s.fanout.EnqueueFanout(ctx, post.ID); err != nil {
		s.log.ErrorContext(ctx, "Failed to schedule fan-out", "post_id", post.ID, "error", err)
	}

	if err := s.publisher.PublishPostCreated(ctx, post); err != nil {
		s.log.WarnContext(ctx, "Failed to publish post.created", "post_id", post.ID, "error", err)
	}

	s.log.InfoContext(ctx, "Post created", "post_id", post.ID, "author_id", post.AuthorID)
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	if postID == "" {
		return nil, domain.ErrInvalidArgument
	}
	post, err := s.cache.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPostsByAuthor est la timeline "profil": même protocole de curseur que le feed.
func (s *PostService) ListPostsByAuthor(ctx context.Context, authorID string, cursor domain.Cursor, pageSize int) (domain.Page[domain.Post], error) {
	if authorID == "" || pageSize <= 0 {
		return domain.Page[domain.Post]{}, domain.ErrInvalidArgument
	}

	page, err := paginateCached(ctx, s.authored, authorID, cursor, pageSize,
		func(ctx context.Context, cursor domain.Cursor, limit int) ([]domain.Post, error) {
			return s.store.ListPostsByAuthor(ctx, authorID, cursor, limit)
		})
	if err != nil {
		return domain.Page[domain.Post]{}, fmt.Errorf("post: list by %s: %w", authorID, err)
	}
	return page, nil
}
