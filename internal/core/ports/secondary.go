package ports

import (
	"context"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
)

// --- DRIVEN (Ce dont le service a besoin) ---

// FeedStore est la source de vérité (Postgres).
type FeedStore interface {
	// BulkInsertFeedEntries insère une entrée par owner en UN aller-retour.
	// Les paires (owner, post) déjà présentes sont renvoyées telles quelles, sans erreur.
	BulkInsertFeedEntries(ctx context.Context, postID string, ownerIDs []string) ([]domain.FeedEntry, error)

	// ListFeedEntries : created_at DESC, id DESC, filtré par le curseur
	ListFeedEntries(ctx context.Context, ownerID string, cursor domain.Cursor, limit int) ([]domain.FeedEntry, error)
}

type PostStore interface {
	SavePost(ctx context.Context, post *domain.Post) error
	FindPostByID(ctx context.Context, postID string) (*domain.Post, error)
	ListPostsByAuthor(ctx context.Context, authorID string, cursor domain.Cursor, limit int) ([]domain.Post, error)
	// DeletePost supprime aussi les entrées de feed (ON DELETE CASCADE)
	DeletePost(ctx context.Context, postID string) error
}

// UserStore est la projection locale des profils de l'identity-service.
type UserStore interface {
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)
	// UpsertUser ignore un snapshot plus vieux que celui déjà stocké
	UpsertUser(ctx context.Context, user *domain.User) error
}

// FollowerSource récupère les IDs des abonnés (Stream côté graph pour la perf)
type FollowerSource interface {
	GetFollowerIDs(ctx context.Context, userID string) ([]string, error)
}

// TaskScheduler est le substrat asynchrone (at-least-once, retry borné, time limit).
type TaskScheduler interface {
	EnqueueFanout(ctx context.Context, postID string) error
	EnqueueFanoutBatch(ctx context.Context, postID string, followerIDs []string) error
}

// ObjectCache est le cache read-through générique (type + id).
type ObjectCache[T any] interface {
	Get(ctx context.Context, id string) (T, error)
	Evict(ctx context.Context, id string) error
}

// ListCache est le cache borné newest-first par owner.
type ListCache[T any] interface {
	Load(ctx context.Context, ownerID string) ([]T, error)
	Push(ctx context.Context, ownerID string, item T) error
	Invalidate(ctx context.Context, ownerID string) error
	Limit() int
}

type EventPublisher interface {
	PublishPostCreated(ctx context.Context, post *domain.Post) error
}
