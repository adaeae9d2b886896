package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/newsfeed-service/internal/core/ports"
)

// SyncService reçoit les écritures faites ailleurs (modération, identity-service).
// Les entrées de feed déjà en cache qui pointent vers un post supprimé sont filtrées à l'hydratation.
type SyncService struct {
	postStore ports.PostStore
	userStore ports.UserStore
	posts     ports.ObjectCache[domain.Post]
	users     ports.ObjectCache[domain.User]
	authored  ports.ListCache[domain.Post]
	log       *slog.Logger
}

func NewSyncService(
	postStore ports.PostStore,
	userStore ports.UserStore,
	posts ports.ObjectCache[domain.Post],
	users ports.ObjectCache[domain.User],
	authored ports.ListCache[domain.Post],
	log *slog.Logger,
) *SyncService {
	return &SyncService{
		postStore: postStore,
		userStore: userStore,
		posts:     posts,
		users:     users,
		authored:  authored,
		log:       log,
	}
}

// PostDeleted est idempotent: un post déjà absent n'est pas une erreur.
func (s *SyncService) PostDeleted(ctx context.Context, postID, authorID string) error {
	if postID == "" {
		return domain.ErrInvalidArgument
	}

	// Event "ID brut": sans l'auteur, sa liste "tweets" garderait le post jusqu'au TTL
	if authorID == "" {
		post, err := s.postStore.FindPostByID(ctx, postID)
		switch {
		case err == nil:
			authorID = post.AuthorID
		case !domain.IsNotFound(err):
			return fmt.Errorf("sync: find post %s: %w", postID, err)
		}
	}

	if err := s.postStore.DeletePost(ctx, postID); err != nil && !domain.IsNotFound(err) {
		return fmt.Errorf("sync: delete post %s: %w", postID, err)
	}

	// La base d'abord, sinon une lecture concurrente remettrait le post en cache
	errs := []error{s.posts.Evict(ctx, postID)}
	if authorID != "" {
		errs = append(errs, s.authored.Invalidate(ctx, authorID))
	}

	s.log.InfoContext(ctx, "Post removed from feeds", "post_id", postID, "author_id", authorID)
	return errors.Join(errs...)
}

func (s *SyncService) UserChanged(ctx context.Context, user domain.User) error {
	if user.ID == "" {
		return domain.ErrInvalidArgument
	}

	if err := s.userStore.UpsertUser(ctx, &user); err != nil {
		return fmt.Errorf("sync: upsert user %s: %w", user.ID, err)
	}

	s.log.DebugContext(ctx, "User projection updated", "user_id", user.ID)
	return s.users.Evict(ctx, user.ID)
}
