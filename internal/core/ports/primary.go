package ports

import (
	"context"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
)

// --- DRIVING (Ce que le service expose) ---

type FeedService interface {
	// ListFeed renvoie une page d'entrées brutes (cache d'abord, DB en secours)
	ListFeed(ctx context.Context, req domain.FeedRequest) (domain.Page[domain.FeedEntry], error)

	// GetTimeline est appelé par l'API Gateway pour l'affichage (entrées hydratées)
	GetTimeline(ctx context.Context, req domain.FeedRequest) (domain.Page[domain.FeedItem], error)
}

type FanoutService interface {
	// EnqueueFanout est appelé de façon synchrone à la création du post, puis rend la main
	EnqueueFanout(ctx context.Context, postID string) error

	// FanoutMain et FanoutBatch sont exécutés par les workers
	FanoutMain(ctx context.Context, postID string) (domain.FanoutResult, error)
	FanoutBatch(ctx context.Context, postID string, followerIDs []string) (int, error)
}

type PostService interface {
	CreatePost(ctx context.Context, authorID, content string) (*domain.Post, error)
	GetPost(ctx context.Context, postID string) (*domain.Post, error)
	ListPostsByAuthor(ctx context.Context, authorID string, cursor domain.Cursor, pageSize int) (domain.Page[domain.Post], error)
}

// SyncService applique les écritures des autres services (events) sur notre base et nos caches.
type SyncService interface {
	PostDeleted(ctx context.Context, postID, authorID string) error
	UserChanged(ctx context.Context, user domain.User) error
}
